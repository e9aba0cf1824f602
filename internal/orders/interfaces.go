package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quadmarket/quadmarket-backend/internal/cart"
	"github.com/quadmarket/quadmarket-backend/internal/listings"
	"github.com/quadmarket/quadmarket-backend/pkg/db/models"
	"github.com/quadmarket/quadmarket-backend/pkg/enums"
	"github.com/quadmarket/quadmarket-backend/pkg/pagination"
)

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	TransitionStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (int64, error)
	ReplaceOTP(ctx context.Context, orderID uuid.UUID, hash string, expiry time.Time) (int64, error)
	List(ctx context.Context, query ListQuery) (*ListResult, error)
}

// ListQuery filters and paginates order reads for one user.
type ListQuery struct {
	Pagination pagination.Params
	UserID     uuid.UUID
	View       View
	Status     *enums.OrderStatus
}

// ListResult carries one page of orders plus the cursor for the next.
type ListResult struct {
	Orders     []models.Order
	NextCursor string
}

// View selects which side of an order a user is querying.
type View string

const (
	ViewBought View = "bought"
	ViewSold   View = "sold"
	ViewAll    View = "all"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// stockKeeper mutates listing stock inside the ambient transaction.
type stockKeeper interface {
	Decrement(ctx context.Context, tx *gorm.DB, listingID uuid.UUID, qty int) (int64, error)
	Restore(ctx context.Context, tx *gorm.DB, listingID uuid.UUID, qty int) error
}

// cartConsumer reads and consumes cart lines inside the ambient transaction.
type cartConsumer interface {
	FindLine(ctx context.Context, tx *gorm.DB, lineID uuid.UUID) (*models.CartLine, error)
	DeleteLine(ctx context.Context, tx *gorm.DB, lineID uuid.UUID) error
}

type listingStockKeeper struct {
	repo listings.Repository
}

// NewListingStockKeeper adapts the listings repository to checkout stock
// mutations.
func NewListingStockKeeper(repo listings.Repository) stockKeeper {
	return &listingStockKeeper{repo: repo}
}

func (k *listingStockKeeper) Decrement(ctx context.Context, tx *gorm.DB, listingID uuid.UUID, qty int) (int64, error) {
	return k.repo.WithTx(tx).DecrementStock(ctx, listingID, qty)
}

func (k *listingStockKeeper) Restore(ctx context.Context, tx *gorm.DB, listingID uuid.UUID, qty int) error {
	return k.repo.WithTx(tx).RestoreStock(ctx, listingID, qty)
}

type cartLineConsumer struct {
	repo cart.Repository
}

// NewCartLineConsumer adapts the cart repository to checkout line consumption.
func NewCartLineConsumer(repo cart.Repository) cartConsumer {
	return &cartLineConsumer{repo: repo}
}

func (c *cartLineConsumer) FindLine(ctx context.Context, tx *gorm.DB, lineID uuid.UUID) (*models.CartLine, error) {
	return c.repo.WithTx(tx).FindByID(ctx, lineID)
}

func (c *cartLineConsumer) DeleteLine(ctx context.Context, tx *gorm.DB, lineID uuid.UUID) error {
	return c.repo.WithTx(tx).Delete(ctx, lineID)
}
