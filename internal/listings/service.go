package listings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/quadmarket/quadmarket-backend/pkg/db/models"
	pkgerrors "github.com/quadmarket/quadmarket-backend/pkg/errors"
	"github.com/quadmarket/quadmarket-backend/pkg/pagination"
)

// Service exposes seller listing management and public reads.
type Service interface {
	Create(ctx context.Context, sellerID uuid.UUID, input CreateInput) (*ListingDTO, error)
	Update(ctx context.Context, sellerID, listingID uuid.UUID, input UpdateInput) (*ListingDTO, error)
	Disable(ctx context.Context, sellerID, listingID uuid.UUID) error
	Get(ctx context.Context, listingID uuid.UUID) (*ListingDTO, error)
	List(ctx context.Context, input ListInput) (*ListDTO, error)
}

// CreateInput holds the validated payload to create a listing.
type CreateInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
}

// UpdateInput holds optional mutation values for a listing.
type UpdateInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Quantity    *int
}

// ListInput filters the listing collection read.
type ListInput struct {
	Pagination    pagination.Params
	SellerID      *uuid.UUID
	AvailableOnly bool
	Search        string
}

type service struct {
	repo Repository
}

// NewService constructs a listings service instance.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("listings repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, sellerID uuid.UUID, input CreateInput) (*ListingDTO, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing name required")
	}
	if input.Price.Cmp(decimal.Zero) <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	listing := &models.Listing{
		SellerID:    sellerID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       input.Price,
		Quantity:    input.Quantity,
		IsAvailable: input.Quantity > 0,
	}
	created, err := s.repo.Create(ctx, listing)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create listing")
	}
	dto := toListingDTO(*created)
	return &dto, nil
}

// Update patches only the fields the seller sent. The write is column
// scoped so a checkout decrementing stock between the ownership read and
// this statement is never clobbered by a metadata-only patch.
func (s *service) Update(ctx context.Context, sellerID, listingID uuid.UUID, input UpdateInput) (*ListingDTO, error) {
	listing, err := s.loadOwned(ctx, sellerID, listingID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing name required")
		}
		fields["name"] = name
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.Price != nil {
		if input.Price.Cmp(decimal.Zero) <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		fields["price"] = *input.Price
	}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
		}
		fields["quantity"] = *input.Quantity
		fields["is_available"] = *input.Quantity > 0
	}
	if len(fields) == 0 {
		dto := toListingDTO(*listing)
		return &dto, nil
	}

	if err := s.repo.UpdateFields(ctx, listingID, fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update listing")
	}
	updated, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload listing")
	}
	dto := toListingDTO(*updated)
	return &dto, nil
}

func (s *service) Disable(ctx context.Context, sellerID, listingID uuid.UUID) error {
	if _, err := s.loadOwned(ctx, sellerID, listingID); err != nil {
		return err
	}
	if err := s.repo.Disable(ctx, listingID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "disable listing")
	}
	return nil
}

func (s *service) Get(ctx context.Context, listingID uuid.UUID) (*ListingDTO, error) {
	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	dto := toListingDTO(*listing)
	return &dto, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListDTO, error) {
	result, err := s.repo.List(ctx, ListQuery{
		Pagination:    input.Pagination,
		SellerID:      input.SellerID,
		AvailableOnly: input.AvailableOnly,
		Search:        input.Search,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list listings")
	}
	return toListDTO(result), nil
}

func (s *service) loadOwned(ctx context.Context, sellerID, listingID uuid.UUID) (*models.Listing, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	listing, err := s.repo.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	if listing.SellerID != sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "listing does not belong to seller")
	}
	return listing, nil
}
