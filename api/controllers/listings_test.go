package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quadmarket/quadmarket-backend/internal/listings"
	pkgerrors "github.com/quadmarket/quadmarket-backend/pkg/errors"
)

type testListingsService struct {
	createFn  func(ctx context.Context, sellerID uuid.UUID, input listings.CreateInput) (*listings.ListingDTO, error)
	updateFn  func(ctx context.Context, sellerID, listingID uuid.UUID, input listings.UpdateInput) (*listings.ListingDTO, error)
	disableFn func(ctx context.Context, sellerID, listingID uuid.UUID) error
	getFn     func(ctx context.Context, listingID uuid.UUID) (*listings.ListingDTO, error)
	listFn    func(ctx context.Context, input listings.ListInput) (*listings.ListDTO, error)
}

func (s *testListingsService) Create(ctx context.Context, sellerID uuid.UUID, input listings.CreateInput) (*listings.ListingDTO, error) {
	if s.createFn != nil {
		return s.createFn(ctx, sellerID, input)
	}
	return nil, nil
}

func (s *testListingsService) Update(ctx context.Context, sellerID, listingID uuid.UUID, input listings.UpdateInput) (*listings.ListingDTO, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, sellerID, listingID, input)
	}
	return nil, nil
}

func (s *testListingsService) Disable(ctx context.Context, sellerID, listingID uuid.UUID) error {
	if s.disableFn != nil {
		return s.disableFn(ctx, sellerID, listingID)
	}
	return nil
}

func (s *testListingsService) Get(ctx context.Context, listingID uuid.UUID) (*listings.ListingDTO, error) {
	if s.getFn != nil {
		return s.getFn(ctx, listingID)
	}
	return nil, nil
}

func (s *testListingsService) List(ctx context.Context, input listings.ListInput) (*listings.ListDTO, error) {
	if s.listFn != nil {
		return s.listFn(ctx, input)
	}
	return &listings.ListDTO{}, nil
}

func TestCreateListingSuccess(t *testing.T) {
	sellerID := uuid.New()
	var captured listings.CreateInput
	svc := &testListingsService{
		createFn: func(_ context.Context, seller uuid.UUID, input listings.CreateInput) (*listings.ListingDTO, error) {
			if seller != sellerID {
				t.Fatalf("unexpected seller %s", seller)
			}
			captured = input
			return &listings.ListingDTO{ID: uuid.New()}, nil
		},
	}

	body := `{"name":"  desk lamp  ","description":"warm light","price":"12.99","quantity":3}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", strings.NewReader(body))
	req = authedRequest(req, sellerID)
	resp := httptest.NewRecorder()
	CreateListing(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.Name != "desk lamp" {
		t.Fatalf("name must be trimmed, got %q", captured.Name)
	}
	if !captured.Price.Equal(decimal.RequireFromString("12.99")) || captured.Quantity != 3 {
		t.Fatalf("unexpected input %+v", captured)
	}
}

func TestCreateListingRejectsBadPrice(t *testing.T) {
	body := `{"name":"desk lamp","price":"free","quantity":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", strings.NewReader(body))
	req = authedRequest(req, uuid.New())
	resp := httptest.NewRecorder()
	CreateListing(&testListingsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateListingRequiresAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", strings.NewReader(`{"name":"x","price":"1","quantity":1}`))
	resp := httptest.NewRecorder()
	CreateListing(&testListingsService{}, testLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestListListingsForwardsFilters(t *testing.T) {
	sellerID := uuid.New()
	var captured listings.ListInput
	svc := &testListingsService{
		listFn: func(_ context.Context, input listings.ListInput) (*listings.ListDTO, error) {
			captured = input
			return &listings.ListDTO{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/listings?limit=10&q=lamp&sellerId="+sellerID.String()+"&availableOnly=false", nil)
	resp := httptest.NewRecorder()
	ListListings(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.Pagination.Limit != 10 || captured.Search != "lamp" {
		t.Fatalf("unexpected input %+v", captured)
	}
	if captured.SellerID == nil || *captured.SellerID != sellerID {
		t.Fatalf("expected seller filter, got %+v", captured.SellerID)
	}
	if captured.AvailableOnly {
		t.Fatalf("availableOnly=false must be honored")
	}
}

func TestUpdateListingMapsOwnershipError(t *testing.T) {
	svc := &testListingsService{
		updateFn: func(context.Context, uuid.UUID, uuid.UUID, listings.UpdateInput) (*listings.ListingDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "listing belongs to another seller")
		},
	}

	listingID := uuid.NewString()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/listings/"+listingID, strings.NewReader(`{"quantity":5}`))
	req = authedRequest(req, uuid.New())
	req = addRouteParam(req, "listingID", listingID)
	resp := httptest.NewRecorder()
	UpdateListing(svc, testLogger())(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestDisableListingSuccess(t *testing.T) {
	listingID := uuid.New()
	called := false
	svc := &testListingsService{
		disableFn: func(_ context.Context, _, lid uuid.UUID) error {
			called = true
			if lid != listingID {
				t.Fatalf("unexpected listing %s", lid)
			}
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/listings/"+listingID.String(), nil)
	req = authedRequest(req, uuid.New())
	req = addRouteParam(req, "listingID", listingID.String())
	resp := httptest.NewRecorder()
	DisableListing(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK || !called {
		t.Fatalf("expected disable, code=%d called=%v", resp.Code, called)
	}
}
