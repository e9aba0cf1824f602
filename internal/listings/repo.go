package listings

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quadmarket/quadmarket-backend/pkg/db/models"
	"github.com/quadmarket/quadmarket-backend/pkg/pagination"
)

// Repository defines persistence operations for listings, including the
// conditional stock mutations used at checkout and cancellation.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	UpdateFields(ctx context.Context, listingID uuid.UUID, fields map[string]any) error
	List(ctx context.Context, query ListQuery) (*ListResult, error)
	DecrementStock(ctx context.Context, listingID uuid.UUID, qty int) (int64, error)
	RestoreStock(ctx context.Context, listingID uuid.UUID, qty int) error
	Disable(ctx context.Context, listingID uuid.UUID) error
}

// ListQuery filters and paginates listing reads.
type ListQuery struct {
	Pagination    pagination.Params
	SellerID      *uuid.UUID
	AvailableOnly bool
	Search        string
}

// ListResult carries one page of listings plus the cursor for the next.
type ListResult struct {
	Listings   []models.Listing
	NextCursor string
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a listings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

// UpdateFields writes only the provided columns. Quantity is never among
// them unless the caller set it explicitly, so concurrent checkout
// decrements survive a metadata-only patch.
func (r *repository) UpdateFields(ctx context.Context, listingID uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).Model(&models.Listing{}).
		Where("id = ?", listingID).
		Updates(fields).Error
}

func (r *repository) List(ctx context.Context, query ListQuery) (*ListResult, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)
	if limitWithBuffer <= pageSize {
		limitWithBuffer = pageSize + 1
	}

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Model(&models.Listing{})
	if query.SellerID != nil {
		qb = qb.Where("seller_id = ?", *query.SellerID)
	}
	if query.AvailableOnly {
		qb = qb.Where("is_available = ?", true)
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("LOWER(name) LIKE ?", pattern)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Listing
	if err := qb.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer).Find(&rows).Error; err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return &ListResult{Listings: rows, NextCursor: nextCursor}, nil
}

// DecrementStock atomically takes qty units off the listing. The guard lives
// in the statement itself: zero rows affected means the listing is missing,
// disabled, or short on stock. A decrement that empties the listing flips
// is_available in the same statement, keeping the availability invariant.
func (r *repository) DecrementStock(ctx context.Context, listingID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE listings
		SET quantity = quantity - ?,
			is_available = (quantity - ? > 0),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND is_available AND quantity >= ?
	`, qty, qty, listingID, qty)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// RestoreStock returns qty units to the listing and re-enables it.
func (r *repository) RestoreStock(ctx context.Context, listingID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE listings
		SET quantity = quantity + ?,
			is_available = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, true, listingID).Error
}

// Disable zeroes the listing out without deleting the row.
func (r *repository) Disable(ctx context.Context, listingID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Listing{}).
		Where("id = ?", listingID).
		Updates(map[string]any{
			"quantity":     0,
			"is_available": false,
			"updated_at":   time.Now().UTC(),
		}).Error
}
