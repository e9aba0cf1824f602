package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quadmarket/quadmarket-backend/pkg/db/models"
	"github.com/quadmarket/quadmarket-backend/pkg/enums"
	"github.com/quadmarket/quadmarket-backend/pkg/pagination"
)

func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:ordersrepo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Listing{}, &models.Order{}))
	return db
}

func repoListing(t *testing.T, db *gorm.DB, seller uuid.UUID, name string) *models.Listing {
	t.Helper()

	listing := &models.Listing{
		SellerID:    seller,
		Name:        name,
		Price:       decimal.NewFromInt(25),
		Quantity:    10,
		IsAvailable: true,
	}
	require.NoError(t, db.Create(listing).Error)
	return listing
}

func repoOrder(t *testing.T, db *gorm.DB, repo Repository, listing *models.Listing, buyer uuid.UUID, qty int, status enums.OrderStatus, created time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ListingID:    listing.ID,
		BuyerID:      buyer,
		SellerID:     listing.SellerID,
		Quantity:     qty,
		ListedPrice:  listing.Price,
		SettledPrice: listing.Price,
		Status:       status,
		OTPHash:      "x",
		OTPExpiry:    created.Add(24 * time.Hour),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	saved, err := repo.Create(context.Background(), order)
	require.NoError(t, err)
	return saved
}

func TestRepositoryFindByIDPreloadsListing(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewRepository(db)

	listing := repoListing(t, db, uuid.New(), "Mini Fridge")
	order := repoOrder(t, db, repo, listing, uuid.New(), 2, enums.OrderStatusPending, time.Now().UTC())

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	require.NotNil(t, found.Listing)
	assert.Equal(t, "Mini Fridge", found.Listing.Name)

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryTransitionStatusIsCompareAndSwap(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewRepository(db)

	listing := repoListing(t, db, uuid.New(), "Desk Chair")
	order := repoOrder(t, db, repo, listing, uuid.New(), 1, enums.OrderStatusPending, time.Now().UTC())

	affected, err := repo.TransitionStatus(context.Background(), order.ID, enums.OrderStatusPending, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	// second transition from pending loses the race
	affected, err = repo.TransitionStatus(context.Background(), order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Zero(t, affected)

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, found.Status)
}

func TestRepositoryReplaceOTPOnlyWhilePending(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewRepository(db)

	listing := repoListing(t, db, uuid.New(), "Textbook Bundle")
	pending := repoOrder(t, db, repo, listing, uuid.New(), 1, enums.OrderStatusPending, time.Now().UTC())
	delivered := repoOrder(t, db, repo, listing, uuid.New(), 1, enums.OrderStatusDelivered, time.Now().UTC())

	expiry := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	affected, err := repo.ReplaceOTP(context.Background(), pending.ID, "fresh-hash", expiry)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = repo.ReplaceOTP(context.Background(), delivered.ID, "fresh-hash", expiry)
	require.NoError(t, err)
	assert.Zero(t, affected)

	found, err := repo.FindByID(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, "fresh-hash", found.OTPHash)
}

func TestRepositoryListViewsAndPagination(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewRepository(db)

	alice := uuid.New()
	bob := uuid.New()
	listing := repoListing(t, db, bob, "Bike Lock")

	now := time.Now().UTC()
	older := repoOrder(t, db, repo, listing, alice, 1, enums.OrderStatusDelivered, now.Add(-time.Hour))
	newer := repoOrder(t, db, repo, listing, alice, 2, enums.OrderStatusPending, now)

	bought, err := repo.List(context.Background(), ListQuery{
		UserID:     alice,
		View:       ViewBought,
		Pagination: pagination.Params{Limit: 1},
	})
	require.NoError(t, err)
	require.Len(t, bought.Orders, 1)
	assert.Equal(t, newer.ID, bought.Orders[0].ID)
	assert.NotEmpty(t, bought.NextCursor)
	require.NotNil(t, bought.Orders[0].Listing)
	assert.Equal(t, "Bike Lock", bought.Orders[0].Listing.Name)

	second, err := repo.List(context.Background(), ListQuery{
		UserID:     alice,
		View:       ViewBought,
		Pagination: pagination.Params{Limit: 1, Cursor: bought.NextCursor},
	})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Equal(t, older.ID, second.Orders[0].ID)
	assert.Empty(t, second.NextCursor)

	sold, err := repo.List(context.Background(), ListQuery{
		UserID:     bob,
		View:       ViewSold,
		Pagination: pagination.Params{Limit: 10},
	})
	require.NoError(t, err)
	assert.Len(t, sold.Orders, 2)

	soldByAlice, err := repo.List(context.Background(), ListQuery{
		UserID:     alice,
		View:       ViewSold,
		Pagination: pagination.Params{Limit: 10},
	})
	require.NoError(t, err)
	assert.Empty(t, soldByAlice.Orders)

	delivered := enums.OrderStatusDelivered
	filtered, err := repo.List(context.Background(), ListQuery{
		UserID:     alice,
		View:       ViewAll,
		Status:     &delivered,
		Pagination: pagination.Params{Limit: 10},
	})
	require.NoError(t, err)
	require.Len(t, filtered.Orders, 1)
	assert.Equal(t, older.ID, filtered.Orders[0].ID)

	_, err = repo.List(context.Background(), ListQuery{
		UserID:     alice,
		View:       ViewAll,
		Pagination: pagination.Params{Limit: 10, Cursor: "not-a-cursor"},
	})
	assert.Error(t, err)
}
