package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/quadmarket/quadmarket-backend/pkg/enums"
)

// Order is a committed purchase created from a cart line at checkout. All
// fields except Status, OTPHash and OTPExpiry are immutable after creation.
// The delivery code is stored only as an Argon2id hash; the plaintext is
// returned once to the caller and never persisted.
type Order struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey"`
	ListingID    uuid.UUID         `gorm:"column:listing_id;type:uuid;not null;index"`
	BuyerID      uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null;index"`
	SellerID     uuid.UUID         `gorm:"column:seller_id;type:uuid;not null;index"`
	Quantity     int               `gorm:"column:quantity;not null"`
	ListedPrice  decimal.Decimal   `gorm:"column:listed_price;type:numeric(12,2);not null"`
	SettledPrice decimal.Decimal   `gorm:"column:settled_price;type:numeric(12,2);not null"`
	Status       enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending';index"`
	OTPHash      string            `gorm:"column:otp_hash;type:text;not null"`
	OTPExpiry    time.Time         `gorm:"column:otp_expiry;not null"`
	Listing      *Listing          `gorm:"foreignKey:ListingID"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
