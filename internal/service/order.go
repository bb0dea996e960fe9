package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/ayo6706/exchange-brokerage/internal/observability"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PlaceOrderRequest is a customer's raw trade request.
type PlaceOrderRequest struct {
	UserID      uuid.UUID
	Type        string
	FirstAmount string
	From        string
	To          string
}

type orderStore interface {
	OrderStore
	UserStore
}

// OrderService places orders and runs the admin order workflow.
type OrderService struct {
	store    orderStore
	quotes   *QuoteService
	resolver *AccountResolver
	notifier OrderNotifier
}

func NewOrderService(store orderStore, quotes *QuoteService, resolver *AccountResolver, notifier OrderNotifier) *OrderService {
	return &OrderService{
		store:    store,
		quotes:   quotes,
		resolver: resolver,
		notifier: notifier,
	}
}

// PlaceOrder validates, prices, resolves accounts, snapshots them and persists
// a pending order. Quote and resolver errors come back unchanged. Confirmation
// mail and the order.placed event are queued and never fail the call.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderRequest) (*models.Order, error) {
	req, err := domain.ParseTradeRequest(in.Type, in.From, in.To)
	if err != nil {
		return nil, err
	}
	amount, err := domain.ParseAmount(in.FirstAmount)
	if err != nil {
		return nil, err
	}

	quote, err := s.quotes.ComputeQuote(ctx, req, amount)
	if err != nil {
		return nil, err
	}
	accounts, err := s.resolver.ResolveAccounts(ctx, in.UserID, req)
	if err != nil {
		return nil, err
	}
	customer, err := s.store.GetUser(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}

	order := &models.Order{
		ID:             uuid.New(),
		UserID:         in.UserID,
		Type:           quote.Type,
		Status:         domain.OrderStatusPending,
		FirstAmount:    quote.FirstAmount,
		SecondAmount:   quote.SecondAmount,
		ServiceCharges: quote.ServiceCharges,
		SentFrom:       accounts.Source.Snapshot(),
		ReceivedIn:     accounts.Destination.Snapshot(),
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	observability.IncrementOrderPlaced(string(order.Type))
	zap.L().Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", order.UserID.String()),
		zap.String("type", string(order.Type)),
		zap.String("trace_id", observability.TraceID(ctx)),
	)
	s.notifier.OrderPlaced(ctx, *order, *customer)
	return order, nil
}

// PlaceOrderFor is the admin desk entering a trade on behalf of a customer.
// Pricing, account resolution and snapshots follow PlaceOrder exactly.
func (s *OrderService) PlaceOrderFor(ctx context.Context, in PlaceOrderRequest, actorID uuid.UUID) (*models.Order, error) {
	if in.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrInvalidParameters)
	}
	if _, err := s.store.GetUser(ctx, in.UserID); err != nil {
		return nil, err
	}
	order, err := s.PlaceOrder(ctx, in)
	if err != nil {
		return nil, err
	}
	zap.L().Info("order entered by admin",
		zap.String("order_id", order.ID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("user_id", in.UserID.String()),
	)
	return order, nil
}

// OrderAmendment carries admin corrections to an order's pricing. Nil fields
// are left alone. Snapshots, type and owner cannot be amended.
type OrderAmendment struct {
	FirstAmount    *string
	SecondAmount   *string
	ServiceCharges *string
}

// AmendOrder corrects the pricing of a pending order and records the change
// in the audit log. An amendment that changes nothing is a no-op.
func (s *OrderService) AmendOrder(ctx context.Context, orderID uuid.UUID, in OrderAmendment, actorID uuid.UUID) (*models.Order, error) {
	if in.FirstAmount == nil && in.SecondAmount == nil && in.ServiceCharges == nil {
		return nil, fmt.Errorf("%w: nothing to amend", domain.ErrInvalidParameters)
	}
	var (
		first, second decimal.Decimal
		charges       string
		err           error
	)
	if in.FirstAmount != nil {
		if first, err = domain.ParseAmount(*in.FirstAmount); err != nil {
			return nil, err
		}
	}
	if in.SecondAmount != nil {
		if second, err = domain.ParseSettlement(*in.SecondAmount); err != nil {
			return nil, err
		}
	}
	if in.ServiceCharges != nil {
		if charges = strings.TrimSpace(*in.ServiceCharges); charges == "" {
			return nil, fmt.Errorf("%w: service_charges must not be empty", domain.ErrInvalidParameters)
		}
	}

	changed := false
	order, err := s.store.AmendOrder(ctx, orderID, &actorID, func(o *models.Order) (bool, error) {
		if o.Status != domain.OrderStatusPending {
			return false, fmt.Errorf("%w: order is %s", domain.ErrOrderClosed, o.Status)
		}
		if in.FirstAmount != nil && !o.FirstAmount.Equal(first) {
			o.FirstAmount, changed = first, true
		}
		if in.SecondAmount != nil && !o.SecondAmount.Equal(second) {
			o.SecondAmount, changed = second, true
		}
		if in.ServiceCharges != nil && o.ServiceCharges != charges {
			o.ServiceCharges, changed = charges, true
		}
		return changed, nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		zap.L().Info("order amended",
			zap.String("order_id", orderID.String()),
			zap.String("actor_id", actorID.String()),
			zap.String("pricing", order.PricingSummary()),
		)
	}
	return order, nil
}

// SetOrderStatus applies an admin status change. Setting the current status
// is a no-op; leaving a terminal status is ErrInvalidTransition.
func (s *OrderService) SetOrderStatus(ctx context.Context, orderID uuid.UUID, rawStatus string, actorID uuid.UUID) (*models.Order, error) {
	next, ok := domain.ParseOrderStatus(strings.TrimSpace(rawStatus))
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, rawStatus)
	}

	var previous domain.OrderStatus
	order, err := s.store.TransitionOrderStatus(ctx, orderID, next, &actorID, func(current domain.OrderStatus) (bool, error) {
		previous = current
		if current == next {
			return false, nil
		}
		if !canTransition(current, next) {
			return false, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current, next)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if previous == next {
		return order, nil
	}

	observability.IncrementOrderStatusChange(string(next))
	zap.L().Info("order status changed",
		zap.String("order_id", orderID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
	)

	customer, err := s.store.GetUser(ctx, order.UserID)
	if err != nil {
		zap.L().Warn("order owner lookup failed, status mail skipped", zap.String("order_id", orderID.String()), zap.Error(err))
		customer = &models.User{ID: order.UserID}
	}
	s.notifier.OrderStatusChanged(ctx, *order, *customer, previous)
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.store.GetOrder(ctx, orderID)
}

// ListOrders is the admin listing across all customers.
func (s *OrderService) ListOrders(ctx context.Context, f models.OrderFilter) (models.Page[models.Order], error) {
	f.ListParams = f.ListParams.Normalize()
	items, total, err := s.store.ListOrders(ctx, f)
	if err != nil {
		return models.Page[models.Order]{}, err
	}
	return models.NewPage(items, total, f.ListParams), nil
}

// ListUserOrders is a customer's own order history.
func (s *OrderService) ListUserOrders(ctx context.Context, userID uuid.UUID, p models.ListParams) (models.Page[models.Order], error) {
	return s.ListOrders(ctx, models.OrderFilter{ListParams: p, UserID: &userID})
}

// GetOrderOwner returns the customer who placed the order.
func (s *OrderService) GetOrderOwner(ctx context.Context, orderID uuid.UUID) (*models.User, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.store.GetUser(ctx, order.UserID)
}

func (s *OrderService) ArchiveOrder(ctx context.Context, orderID, actorID uuid.UUID) error {
	if err := s.store.ArchiveOrder(ctx, orderID, &actorID); err != nil {
		return err
	}
	zap.L().Info("order archived", zap.String("order_id", orderID.String()), zap.String("actor_id", actorID.String()))
	return nil
}
