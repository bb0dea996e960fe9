package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/ayo6706/exchange-brokerage/internal/observability"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrResyncIncomplete reports that at least one currency kept a stale schedule.
var ErrResyncIncomplete = errors.New("commission resync incomplete")

// CommissionStore is the slice of the store the synchronizer touches.
type CommissionStore interface {
	ListActiveCurrencies(ctx context.Context) ([]models.Currency, error)
	ListActivePaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
	UpdateCurrencyCommissions(ctx context.Context, id uuid.UUID, s domain.CommissionSchedule) error
}

// CommissionService keeps every active currency's commission schedule aligned
// with the active payment methods and currencies.
type CommissionService struct {
	store CommissionStore
}

func NewCommissionService(store CommissionStore) *CommissionService {
	return &CommissionService{store: store}
}

// Resync rebuilds each active currency's buy, sell and exchange lists. Every
// currency is written independently: a failure is logged and the loop moves
// on, earlier writes are kept, and the failures come back joined under
// ErrResyncIncomplete. Currencies already in shape are not rewritten.
func (s *CommissionService) Resync(ctx context.Context) error {
	currencies, err := s.store.ListActiveCurrencies(ctx)
	if err != nil {
		return fmt.Errorf("list currencies: %w", err)
	}
	paymentMethods, err := s.store.ListActivePaymentMethods(ctx)
	if err != nil {
		return fmt.Errorf("list payment methods: %w", err)
	}

	pmTitles := make([]string, 0, len(paymentMethods))
	for _, pm := range paymentMethods {
		pmTitles = append(pmTitles, pm.Title)
	}
	currencyTitles := make([]string, 0, len(currencies))
	for _, c := range currencies {
		currencyTitles = append(currencyTitles, c.Title)
	}

	var (
		failures []error
		updated  int
	)
	for _, c := range currencies {
		current := c.Schedule()
		next := current.Reconcile(c.Title, pmTitles, currencyTitles)
		if next.Equal(current) {
			observability.IncrementResync("unchanged")
			continue
		}
		if err := s.store.UpdateCurrencyCommissions(ctx, c.ID, next); err != nil {
			observability.IncrementResync("failed")
			zap.L().Error("commission resync failed for currency",
				zap.String("currency_id", c.ID.String()),
				zap.String("currency", c.Title),
				zap.Error(err),
			)
			failures = append(failures, fmt.Errorf("currency %s: %w", c.Title, err))
			continue
		}
		observability.IncrementResync("updated")
		updated++
	}

	zap.L().Info("commission resync finished",
		zap.Int("currencies", len(currencies)),
		zap.Int("payment_methods", len(paymentMethods)),
		zap.Int("updated", updated),
		zap.Int("failed", len(failures)),
	)
	if len(failures) > 0 {
		return fmt.Errorf("%w: %d of %d currencies failed: %w", ErrResyncIncomplete, len(failures), len(currencies), errors.Join(failures...))
	}
	return nil
}
