package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quadmarket/quadmarket-backend/pkg/db/models"
)

// Repository defines persistence operations for cart lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, line *models.CartLine) (*models.CartLine, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CartLine, error)
	FindByBuyerAndListing(ctx context.Context, buyerID, listingID uuid.UUID) (*models.CartLine, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.CartLine, error)
	Save(ctx context.Context, line *models.CartLine) (*models.CartLine, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, line *models.CartLine) (*models.CartLine, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Preload("Listing").
		First(&line, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repository) FindByBuyerAndListing(ctx context.Context, buyerID, listingID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		First(&line, "buyer_id = ? AND listing_id = ?", buyerID, listingID).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Preload("Listing").
		Where("buyer_id = ?", buyerID).
		Order("created_at ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) Save(ctx context.Context, line *models.CartLine) (*models.CartLine, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CartLine{}).Error
}
