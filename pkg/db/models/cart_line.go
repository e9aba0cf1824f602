package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/quadmarket/quadmarket-backend/pkg/enums"
)

// CartLine holds one buyer's pending intent to purchase a listing. At most
// one line exists per (buyer, listing) pair. A line optionally carries a
// bargain: a buyer-proposed price awaiting the seller's decision.
type CartLine struct {
	ID            uuid.UUID            `gorm:"type:uuid;primaryKey"`
	BuyerID       uuid.UUID            `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex:idx_cart_buyer_listing"`
	ListingID     uuid.UUID            `gorm:"column:listing_id;type:uuid;not null;uniqueIndex:idx_cart_buyer_listing"`
	Quantity      int                  `gorm:"column:quantity;not null;default:1"`
	SavedForLater bool                 `gorm:"column:saved_for_later;not null;default:false"`
	BargainPrice  *decimal.Decimal     `gorm:"column:bargain_price;type:numeric(12,2)"`
	BargainNote   *string              `gorm:"column:bargain_note;type:text"`
	BargainStatus *enums.BargainStatus `gorm:"column:bargain_status;type:text"`
	Listing       *Listing             `gorm:"foreignKey:ListingID"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *CartLine) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// HasAcceptedBargain reports whether the seller accepted the proposed price.
func (c *CartLine) HasAcceptedBargain() bool {
	return c.BargainStatus != nil && *c.BargainStatus == enums.BargainStatusAccepted && c.BargainPrice != nil
}
