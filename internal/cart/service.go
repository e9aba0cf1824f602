package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/quadmarket/quadmarket-backend/internal/notifications"
	"github.com/quadmarket/quadmarket-backend/pkg/db"
	"github.com/quadmarket/quadmarket-backend/pkg/db/models"
	"github.com/quadmarket/quadmarket-backend/pkg/enums"
	pkgerrors "github.com/quadmarket/quadmarket-backend/pkg/errors"
)

type listingLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

// Service exposes buyer cart management plus the bargain sub-flow.
type Service interface {
	AddLine(ctx context.Context, buyerID uuid.UUID, input AddInput) (*LineDTO, error)
	UpdateLine(ctx context.Context, buyerID, lineID uuid.UUID, input UpdateInput) (*LineDTO, error)
	RemoveLine(ctx context.Context, buyerID, lineID uuid.UUID) error
	List(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error)
	ProposeBargain(ctx context.Context, buyerID, lineID uuid.UUID, input BargainInput) (*LineDTO, error)
	DecideBargain(ctx context.Context, sellerID, lineID uuid.UUID, decision BargainDecision) (*LineDTO, error)
}

// AddInput holds the payload to add a listing to the cart.
type AddInput struct {
	ListingID uuid.UUID
	Quantity  int
}

// UpdateInput holds optional mutation values for a cart line.
type UpdateInput struct {
	Quantity      *int
	SavedForLater *bool
}

// BargainInput carries a buyer's price proposal.
type BargainInput struct {
	ProposedPrice decimal.Decimal
	Note          string
}

// BargainDecision represents the seller's call on a proposed price.
type BargainDecision string

const (
	BargainDecisionAccept BargainDecision = "accept"
	BargainDecisionReject BargainDecision = "reject"
)

type service struct {
	repo     Repository
	listings listingLoader
	recorder notifications.Recorder
}

// NewService constructs a cart service instance.
func NewService(repo Repository, listings listingLoader, recorder notifications.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if listings == nil {
		return nil, fmt.Errorf("listing loader required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("notification recorder required")
	}
	return &service{repo: repo, listings: listings, recorder: recorder}, nil
}

func (s *service) AddLine(ctx context.Context, buyerID uuid.UUID, input AddInput) (*LineDTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	listing, err := s.listings.FindByID(ctx, input.ListingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	if listing.SellerID == buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot add your own listing to the cart")
	}
	if !listing.IsAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeUnavailable, "listing is not available").
			WithDetails(map[string]any{"listing_id": listing.ID})
	}

	if _, err := s.repo.FindByBuyerAndListing(ctx, buyerID, input.ListingID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "listing already in cart")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing cart line")
	}

	line := &models.CartLine{
		BuyerID:   buyerID,
		ListingID: input.ListingID,
		Quantity:  input.Quantity,
	}
	created, err := s.repo.Create(ctx, line)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "listing already in cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
	}
	created.Listing = listing
	dto := toLineDTO(*created)
	return &dto, nil
}

func (s *service) UpdateLine(ctx context.Context, buyerID, lineID uuid.UUID, input UpdateInput) (*LineDTO, error) {
	line, err := s.loadOwned(ctx, buyerID, lineID)
	if err != nil {
		return nil, err
	}

	if input.Quantity != nil {
		if *input.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		line.Quantity = *input.Quantity
	}
	if input.SavedForLater != nil {
		line.SavedForLater = *input.SavedForLater
	}

	saved, err := s.repo.Save(ctx, line)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	dto := toLineDTO(*saved)
	return &dto, nil
}

func (s *service) RemoveLine(ctx context.Context, buyerID, lineID uuid.UUID) error {
	if _, err := s.loadOwned(ctx, buyerID, lineID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, lineID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
	}
	return nil
}

func (s *service) List(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	lines, err := s.repo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart lines")
	}
	dto := &CartDTO{Lines: make([]LineDTO, 0, len(lines))}
	for _, line := range lines {
		dto.Lines = append(dto.Lines, toLineDTO(line))
	}
	return dto, nil
}

// ProposeBargain replaces any previous proposal on the line and resets the
// bargain to pending, awaiting the seller's decision.
func (s *service) ProposeBargain(ctx context.Context, buyerID, lineID uuid.UUID, input BargainInput) (*LineDTO, error) {
	if input.ProposedPrice.Cmp(decimal.Zero) <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proposed price must be positive")
	}

	line, err := s.loadOwned(ctx, buyerID, lineID)
	if err != nil {
		return nil, err
	}

	price := input.ProposedPrice
	status := enums.BargainStatusPending
	line.BargainPrice = &price
	line.BargainStatus = &status
	if input.Note != "" {
		note := input.Note
		line.BargainNote = &note
	} else {
		line.BargainNote = nil
	}

	saved, err := s.repo.Save(ctx, line)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save bargain proposal")
	}
	dto := toLineDTO(*saved)
	return &dto, nil
}

// DecideBargain lets the listing's seller accept or reject a pending proposal.
func (s *service) DecideBargain(ctx context.Context, sellerID, lineID uuid.UUID, decision BargainDecision) (*LineDTO, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var status enums.BargainStatus
	switch decision {
	case BargainDecisionAccept:
		status = enums.BargainStatusAccepted
	case BargainDecisionReject:
		status = enums.BargainStatusRejected
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be accept or reject")
	}

	line, err := s.repo.FindByID(ctx, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	if line.Listing == nil || line.Listing.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "bargain does not belong to seller")
	}
	if line.BargainStatus == nil || *line.BargainStatus != enums.BargainStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no pending bargain on this line")
	}

	line.BargainStatus = &status
	saved, err := s.repo.Save(ctx, line)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save bargain decision")
	}

	if err := s.recorder.Record(ctx, nil, notifications.RecordInput{
		UserID:  line.BuyerID,
		Kind:    enums.NotificationKindBargainDecided,
		Title:   "Bargain " + string(status),
		Message: fmt.Sprintf("Your offer on %q was %s", line.Listing.Name, status),
	}); err != nil {
		return nil, err
	}

	dto := toLineDTO(*saved)
	return &dto, nil
}

func (s *service) loadOwned(ctx context.Context, buyerID, lineID uuid.UUID) (*models.CartLine, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	line, err := s.repo.FindByID(ctx, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	if line.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return line, nil
}
