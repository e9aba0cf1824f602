package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quadmarket/quadmarket-backend/pkg/db/models"
	"github.com/quadmarket/quadmarket-backend/pkg/enums"
)

// OrderDTO is the wire shape for an order. The delivery code hash never
// leaves the service layer.
type OrderDTO struct {
	ID           uuid.UUID            `json:"id"`
	ListingID    uuid.UUID            `json:"listing_id"`
	BuyerID      uuid.UUID            `json:"buyer_id"`
	SellerID     uuid.UUID            `json:"seller_id"`
	Quantity     int                  `json:"quantity"`
	ListedPrice  decimal.Decimal      `json:"listed_price"`
	SettledPrice decimal.Decimal      `json:"settled_price"`
	Status       enums.OrderStatus    `json:"status"`
	OTPExpiry    time.Time            `json:"otp_expiry"`
	Listing      *OrderListingSummary `json:"listing,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// OrderListingSummary is the subset of listing fields shown on an order.
type OrderListingSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// PlacedOrder pairs a created order with its one-time plaintext delivery code.
type PlacedOrder struct {
	Order     OrderDTO  `json:"order"`
	OTP       string    `json:"otp"`
	OTPExpiry time.Time `json:"otp_expiry"`
}

// OTPDTO is returned when a delivery code is regenerated.
type OTPDTO struct {
	OTP       string    `json:"otp"`
	OTPExpiry time.Time `json:"otp_expiry"`
}

// ListDTO is the paginated wire shape for order collections.
type ListDTO struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func toOrderDTO(order models.Order) OrderDTO {
	dto := OrderDTO{
		ID:           order.ID,
		ListingID:    order.ListingID,
		BuyerID:      order.BuyerID,
		SellerID:     order.SellerID,
		Quantity:     order.Quantity,
		ListedPrice:  order.ListedPrice,
		SettledPrice: order.SettledPrice,
		Status:       order.Status,
		OTPExpiry:    order.OTPExpiry,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
	if order.Listing != nil {
		dto.Listing = &OrderListingSummary{
			ID:   order.Listing.ID,
			Name: order.Listing.Name,
		}
	}
	return dto
}

func toListDTO(result *ListResult) *ListDTO {
	dto := &ListDTO{
		Orders:     make([]OrderDTO, 0, len(result.Orders)),
		NextCursor: result.NextCursor,
	}
	for _, order := range result.Orders {
		dto.Orders = append(dto.Orders, toOrderDTO(order))
	}
	return dto
}
