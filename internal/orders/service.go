package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/quadmarket/quadmarket-backend/internal/notifications"
	"github.com/quadmarket/quadmarket-backend/pkg/config"
	"github.com/quadmarket/quadmarket-backend/pkg/db/models"
	"github.com/quadmarket/quadmarket-backend/pkg/enums"
	pkgerrors "github.com/quadmarket/quadmarket-backend/pkg/errors"
	"github.com/quadmarket/quadmarket-backend/pkg/pagination"
	"github.com/quadmarket/quadmarket-backend/pkg/security"
)

// Service exposes the order lifecycle: placement, delivery confirmation,
// cancellation, code regeneration, and reads.
type Service interface {
	PlaceOrder(ctx context.Context, buyerID uuid.UUID, cartLineIDs []uuid.UUID) ([]PlacedOrder, error)
	ConfirmDelivery(ctx context.Context, orderID, sellerID uuid.UUID, candidateOTP string) (*OrderDTO, error)
	CancelOrder(ctx context.Context, orderID, actorID uuid.UUID) (*OrderDTO, error)
	RegenerateOTP(ctx context.Context, orderID, buyerID uuid.UUID) (*OTPDTO, error)
	Get(ctx context.Context, orderID, userID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, input ListInput) (*ListDTO, error)
}

// ListInput configures the order collection read.
type ListInput struct {
	UserID uuid.UUID
	View   View
	Status *enums.OrderStatus
	Limit  int
	Cursor string
}

type service struct {
	repo     Repository
	tx       txRunner
	stock    stockKeeper
	cart     cartConsumer
	recorder notifications.Recorder
	notifier notifications.Notifier
	otpCfg   config.OTPConfig
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, stock stockKeeper, cart cartConsumer, recorder notifications.Recorder, notifier notifications.Notifier, otpCfg config.OTPConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock keeper required")
	}
	if cart == nil {
		return nil, fmt.Errorf("cart consumer required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("notification recorder required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		stock:    stock,
		cart:     cart,
		recorder: recorder,
		notifier: notifier,
		otpCfg:   otpCfg,
	}, nil
}

// PlaceOrder converts the given cart lines into pending orders inside one
// transaction. Stock is taken with conditional decrements; any failing line
// rolls the whole batch back. Plaintext delivery codes are returned once and
// dispatched out of band after commit.
func (s *service) PlaceOrder(ctx context.Context, buyerID uuid.UUID, cartLineIDs []uuid.UUID) ([]PlacedOrder, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(cartLineIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one cart line required")
	}

	var inputErr error
	seen := make(map[uuid.UUID]bool, len(cartLineIDs))
	for i, id := range cartLineIDs {
		if id == uuid.Nil {
			inputErr = multierr.Append(inputErr, fmt.Errorf("cart line at position %d: id required", i))
		}
		if seen[id] {
			inputErr = multierr.Append(inputErr, fmt.Errorf("cart line %s: duplicated in request", id))
		}
		seen[id] = true
	}
	if inputErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, inputErr, "invalid cart line ids")
	}

	placed := make([]PlacedOrder, 0, len(cartLineIDs))
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, lineID := range cartLineIDs {
			line, err := s.cart.FindLine(ctx, tx, lineID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return lineNotFound(lineID)
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
			}
			if line.BuyerID != buyerID {
				return lineNotFound(lineID)
			}
			if line.SavedForLater {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart line is saved for later").
					WithDetails(map[string]any{"cart_line_id": lineID})
			}
			if line.Listing == nil {
				return pkgerrors.New(pkgerrors.CodeDependency, "cart line has no listing").
					WithDetails(map[string]any{"cart_line_id": lineID})
			}

			rows, err := s.stock.Decrement(ctx, tx, line.ListingID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement listing stock")
			}
			if rows == 0 {
				return pkgerrors.New(pkgerrors.CodeUnavailable, "insufficient stock for listing").
					WithDetails(map[string]any{
						"cart_line_id": lineID,
						"listing_id":   line.ListingID,
						"requested":    line.Quantity,
					})
			}

			settled := line.Listing.Price
			if line.HasAcceptedBargain() {
				settled = *line.BargainPrice
			}

			code, err := security.GenerateCode(s.otpCfg.Digits)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate delivery code")
			}
			hash, err := security.HashCode(code, s.otpCfg)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash delivery code")
			}
			expiry := time.Now().UTC().Add(s.otpCfg.TTL)

			order, err := repo.Create(ctx, &models.Order{
				ListingID:    line.ListingID,
				BuyerID:      line.BuyerID,
				SellerID:     line.Listing.SellerID,
				Quantity:     line.Quantity,
				ListedPrice:  line.Listing.Price,
				SettledPrice: settled,
				Status:       enums.OrderStatusPending,
				OTPHash:      hash,
				OTPExpiry:    expiry,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
			}

			if err := s.cart.DeleteLine(ctx, tx, lineID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume cart line")
			}

			orderID := order.ID
			if err := s.recorder.Record(ctx, tx, notifications.RecordInput{
				UserID:  order.SellerID,
				Kind:    enums.NotificationKindOrderPlaced,
				Title:   "New order",
				Message: fmt.Sprintf("%d x %s sold, pending delivery", order.Quantity, line.Listing.Name),
				OrderID: &orderID,
			}); err != nil {
				return err
			}

			order.Listing = line.Listing
			placed = append(placed, PlacedOrder{
				Order:     toOrderDTO(*order),
				OTP:       code,
				OTPExpiry: expiry,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// codes leave the system only after the batch committed
	for _, p := range placed {
		_ = s.notifier.Send(ctx, p.Order.BuyerID, "Your delivery code",
			fmt.Sprintf("Code for order %s: %s (valid until %s)", p.Order.ID, p.OTP, p.OTPExpiry.Format(time.RFC3339)))
	}

	return placed, nil
}

// ConfirmDelivery marks a pending order delivered after the seller presents
// the buyer's delivery code.
func (s *service) ConfirmDelivery(ctx context.Context, orderID, sellerID uuid.UUID, candidateOTP string) (*OrderDTO, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if candidateOTP == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery code required")
	}

	order, err := s.loadFor(ctx, orderID, sellerID, roleSeller)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not pending")
	}
	if time.Now().UTC().After(order.OTPExpiry) {
		return nil, pkgerrors.New(pkgerrors.CodeExpired, "delivery code expired").
			WithDetails(map[string]any{"otp_expiry": order.OTPExpiry})
	}

	match, err := security.VerifyCode(candidateOTP, order.OTPHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify delivery code")
	}
	if !match {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidSecret, "delivery code mismatch")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusDelivered)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order delivered")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not pending")
		}

		oid := order.ID
		return s.recorder.Record(ctx, tx, notifications.RecordInput{
			UserID:  order.BuyerID,
			Kind:    enums.NotificationKindOrderDelivered,
			Title:   "Order delivered",
			Message: "Your order was confirmed delivered",
			OrderID: &oid,
		})
	})
	if err != nil {
		return nil, err
	}

	order.Status = enums.OrderStatusDelivered
	dto := toOrderDTO(*order)
	return &dto, nil
}

// CancelOrder cancels a pending order on behalf of its buyer or seller and
// returns the stock to the listing.
func (s *service) CancelOrder(ctx context.Context, orderID, actorID uuid.UUID) (*OrderDTO, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.loadFor(ctx, orderID, actorID, roleParticipant)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not pending")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows, err := repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order cancelled")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not pending")
		}

		if err := s.stock.Restore(ctx, tx, order.ListingID, order.Quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore listing stock")
		}

		counterparty := order.SellerID
		if actorID == order.SellerID {
			counterparty = order.BuyerID
		}
		oid := order.ID
		return s.recorder.Record(ctx, tx, notifications.RecordInput{
			UserID:  counterparty,
			Kind:    enums.NotificationKindOrderCancelled,
			Title:   "Order cancelled",
			Message: "A pending order was cancelled and stock restored",
			OrderID: &oid,
		})
	})
	if err != nil {
		return nil, err
	}

	order.Status = enums.OrderStatusCancelled
	dto := toOrderDTO(*order)
	return &dto, nil
}

// RegenerateOTP issues a fresh delivery code for a pending order. Buyer only.
func (s *service) RegenerateOTP(ctx context.Context, orderID, buyerID uuid.UUID) (*OTPDTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.loadFor(ctx, orderID, buyerID, roleBuyer)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not pending")
	}

	code, err := security.GenerateCode(s.otpCfg.Digits)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate delivery code")
	}
	hash, err := security.HashCode(code, s.otpCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash delivery code")
	}
	expiry := time.Now().UTC().Add(s.otpCfg.TTL)

	rows, err := s.repo.ReplaceOTP(ctx, order.ID, hash, expiry)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace delivery code")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not pending")
	}

	_ = s.notifier.Send(ctx, buyerID, "Your delivery code",
		fmt.Sprintf("Code for order %s: %s (valid until %s)", order.ID, code, expiry.Format(time.RFC3339)))

	return &OTPDTO{OTP: code, OTPExpiry: expiry}, nil
}

func (s *service) Get(ctx context.Context, orderID, userID uuid.UUID) (*OrderDTO, error) {
	order, err := s.loadFor(ctx, orderID, userID, roleParticipant)
	if err != nil {
		return nil, err
	}
	dto := toOrderDTO(*order)
	return &dto, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListDTO, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	switch input.View {
	case ViewBought, ViewSold, ViewAll, "":
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "view must be bought, sold, or all")
	}

	result, err := s.repo.List(ctx, ListQuery{
		Pagination: paginationParams(input.Limit, input.Cursor),
		UserID:     input.UserID,
		View:       input.View,
		Status:     input.Status,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return toListDTO(result), nil
}

type accessRole int

const (
	roleBuyer accessRole = iota
	roleSeller
	roleParticipant
)

// loadFor loads the order and hides it from users outside the requested role.
func (s *service) loadFor(ctx context.Context, orderID, userID uuid.UUID, role accessRole) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	allowed := false
	switch role {
	case roleBuyer:
		allowed = order.BuyerID == userID
	case roleSeller:
		allowed = order.SellerID == userID
	case roleParticipant:
		allowed = order.BuyerID == userID || order.SellerID == userID
	}
	if !allowed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func paginationParams(limit int, cursor string) pagination.Params {
	return pagination.Params{Limit: limit, Cursor: cursor}
}

func lineNotFound(lineID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found").
		WithDetails(map[string]any{"cart_line_id": lineID})
}
