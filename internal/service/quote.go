package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/ayo6706/exchange-brokerage/internal/observability"
	"github.com/shopspring/decimal"
)

type currencyLookup interface {
	GetCurrencyByTitle(ctx context.Context, title string) (*models.Currency, error)
}

// QuoteService prices trades against the stored commission schedules. It
// never writes.
type QuoteService struct {
	currencies currencyLookup
}

func NewQuoteService(currencies currencyLookup) *QuoteService {
	return &QuoteService{currencies: currencies}
}

// ComputeQuote resolves the quoted currency's schedule entry for the
// counterparty and applies it to firstAmount. An unknown currency or a
// missing entry is an invalid-parameters error, never a zero fee.
func (s *QuoteService) ComputeQuote(ctx context.Context, req domain.TradeRequest, firstAmount decimal.Decimal) (domain.Quote, error) {
	q, err := s.computeQuote(ctx, req, firstAmount)
	result := "ok"
	if err != nil {
		result = "rejected"
		if !errors.Is(err, domain.ErrValidation) {
			result = "error"
		}
	}
	observability.IncrementQuote(string(req.Type()), result)
	return q, err
}

func (s *QuoteService) computeQuote(ctx context.Context, req domain.TradeRequest, firstAmount decimal.Decimal) (domain.Quote, error) {
	if !firstAmount.IsPositive() {
		return domain.Quote{}, domain.ErrInvalidAmount
	}
	currency, err := s.currencies.GetCurrencyByTitle(ctx, req.QuotedCurrency())
	if err != nil {
		if errors.Is(err, domain.ErrCurrencyNotFound) {
			return domain.Quote{}, fmt.Errorf("%w: unknown currency %s", domain.ErrInvalidParameters, req.QuotedCurrency())
		}
		return domain.Quote{}, fmt.Errorf("load currency: %w", err)
	}

	entry, ok := currency.Schedule().For(req.Type()).Find(req.Counterparty())
	if !ok {
		return domain.Quote{}, fmt.Errorf("%w: %s has no %s commission for %s",
			domain.ErrInvalidParameters, currency.Title, req.Type(), req.Counterparty())
	}
	return domain.PriceTrade(req, entry, firstAmount)
}
