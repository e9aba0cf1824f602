package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quadmarket/quadmarket-backend/api/responses"
	"github.com/quadmarket/quadmarket-backend/api/validators"
	listingsvc "github.com/quadmarket/quadmarket-backend/internal/listings"
	pkgerrors "github.com/quadmarket/quadmarket-backend/pkg/errors"
	"github.com/quadmarket/quadmarket-backend/pkg/logger"
	"github.com/quadmarket/quadmarket-backend/pkg/pagination"
)

const maxListingNameLen = 200

// CreateListing handles listing creation for the authenticated seller.
func CreateListing(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		sellerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createListingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.Create(r.Context(), sellerID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, listing)
	}
}

// GetListing returns a single listing by id.
func GetListing(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		listingID, err := validators.ParsePathUUID(chi.URLParam(r, "listingID"), "listingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.Get(r.Context(), listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listing)
	}
}

// ListListings returns a paginated listing feed.
func ListListings(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		availableOnly, err := validators.ParseQueryBool(r, "availableOnly", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := listingsvc.ListInput{
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			},
			AvailableOnly: availableOnly,
			Search:        validators.SanitizeString(r.URL.Query().Get("q"), maxListingNameLen),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("sellerId")); raw != "" {
			sellerID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller id"))
				return
			}
			input.SellerID = &sellerID
		}

		page, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// UpdateListing applies partial updates to a seller's listing.
func UpdateListing(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		sellerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listingID, err := validators.ParsePathUUID(chi.URLParam(r, "listingID"), "listingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateListingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpdateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.Update(r.Context(), sellerID, listingID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listing)
	}
}

// DisableListing soft-disables a seller's listing.
func DisableListing(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listing service unavailable"))
			return
		}

		sellerID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listingID, err := validators.ParsePathUUID(chi.URLParam(r, "listingID"), "listingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Disable(r.Context(), sellerID, listingID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "disabled"})
	}
}

type createListingRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Price       string `json:"price" validate:"required"`
	Quantity    int    `json:"quantity" validate:"min=0"`
}

func (r createListingRequest) toCreateInput() (listingsvc.CreateInput, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(r.Price))
	if err != nil {
		return listingsvc.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	return listingsvc.CreateInput{
		Name:        validators.SanitizeString(r.Name, maxListingNameLen),
		Description: strings.TrimSpace(r.Description),
		Price:       price,
		Quantity:    r.Quantity,
	}, nil
}

type updateListingRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	Price       *string `json:"price,omitempty"`
	Quantity    *int    `json:"quantity,omitempty" validate:"omitempty,min=0"`
}

func (r updateListingRequest) toUpdateInput() (listingsvc.UpdateInput, error) {
	input := listingsvc.UpdateInput{
		Description: r.Description,
		Quantity:    r.Quantity,
	}
	if r.Name != nil {
		name := validators.SanitizeString(*r.Name, maxListingNameLen)
		input.Name = &name
	}
	if r.Price != nil {
		price, err := decimal.NewFromString(strings.TrimSpace(*r.Price))
		if err != nil {
			return listingsvc.UpdateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
		}
		input.Price = &price
	}
	return input, nil
}
