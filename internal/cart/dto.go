package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quadmarket/quadmarket-backend/pkg/db/models"
	"github.com/quadmarket/quadmarket-backend/pkg/enums"
)

// LineDTO is the wire shape for one cart line.
type LineDTO struct {
	ID            uuid.UUID           `json:"id"`
	ListingID     uuid.UUID           `json:"listing_id"`
	Quantity      int                 `json:"quantity"`
	SavedForLater bool                `json:"saved_for_later"`
	Bargain       *BargainDTO         `json:"bargain,omitempty"`
	Listing       *LineListingSummary `json:"listing,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// BargainDTO carries the negotiated price state on a line.
type BargainDTO struct {
	ProposedPrice decimal.Decimal     `json:"proposed_price"`
	Note          string              `json:"note,omitempty"`
	Status        enums.BargainStatus `json:"status"`
}

// LineListingSummary is the subset of listing fields shown inside a cart.
type LineListingSummary struct {
	ID          uuid.UUID       `json:"id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	IsAvailable bool            `json:"is_available"`
}

// CartDTO is the full cart payload for one buyer.
type CartDTO struct {
	Lines []LineDTO `json:"lines"`
}

func toLineDTO(line models.CartLine) LineDTO {
	dto := LineDTO{
		ID:            line.ID,
		ListingID:     line.ListingID,
		Quantity:      line.Quantity,
		SavedForLater: line.SavedForLater,
		CreatedAt:     line.CreatedAt,
		UpdatedAt:     line.UpdatedAt,
	}
	if line.BargainPrice != nil && line.BargainStatus != nil {
		note := ""
		if line.BargainNote != nil {
			note = *line.BargainNote
		}
		dto.Bargain = &BargainDTO{
			ProposedPrice: *line.BargainPrice,
			Note:          note,
			Status:        *line.BargainStatus,
		}
	}
	if line.Listing != nil {
		dto.Listing = &LineListingSummary{
			ID:          line.Listing.ID,
			SellerID:    line.Listing.SellerID,
			Name:        line.Listing.Name,
			Price:       line.Listing.Price,
			Quantity:    line.Listing.Quantity,
			IsAvailable: line.Listing.IsAvailable,
		}
	}
	return dto
}
