package listings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quadmarket/quadmarket-backend/pkg/db/models"
)

// ListingDTO is the wire shape for a listing.
type ListingDTO struct {
	ID          uuid.UUID       `json:"id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	IsAvailable bool            `json:"is_available"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ListDTO is the paginated wire shape for listing collections.
type ListDTO struct {
	Listings   []ListingDTO `json:"listings"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func toListingDTO(listing models.Listing) ListingDTO {
	return ListingDTO{
		ID:          listing.ID,
		SellerID:    listing.SellerID,
		Name:        listing.Name,
		Description: listing.Description,
		Price:       listing.Price,
		Quantity:    listing.Quantity,
		IsAvailable: listing.IsAvailable,
		CreatedAt:   listing.CreatedAt,
		UpdatedAt:   listing.UpdatedAt,
	}
}

func toListDTO(result *ListResult) *ListDTO {
	dto := &ListDTO{
		Listings:   make([]ListingDTO, 0, len(result.Listings)),
		NextCursor: result.NextCursor,
	}
	for _, listing := range result.Listings {
		dto.Listings = append(dto.Listings, toListingDTO(listing))
	}
	return dto
}
