package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type catalogStore interface {
	CurrencyStore
	PaymentMethodStore
}

// CatalogService manages currencies and payment methods. Callers run
// CommissionService.Resync after every mutation so other currencies pick up
// the change.
type CatalogService struct {
	store catalogStore
}

func NewCatalogService(store catalogStore) *CatalogService {
	return &CatalogService{store: store}
}

// CurrencyUpdate carries optional replacements; nil fields are left alone.
type CurrencyUpdate struct {
	Title               *string
	BuyCommissions      *domain.Commissions
	SellCommissions     *domain.Commissions
	ExchangeCommissions *domain.Commissions
}

// PaymentMethodUpdate carries optional replacements; nil fields are left alone.
type PaymentMethodUpdate struct {
	Title            *string
	IsBankingEnabled *bool
}

func normalizeTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", domain.ErrInvalidParameters)
	}
	return title, nil
}

func (s *CatalogService) ListCurrencies(ctx context.Context, p models.ListParams) (models.Page[models.Currency], error) {
	p = p.Normalize()
	items, total, err := s.store.ListCurrencies(ctx, p)
	if err != nil {
		return models.Page[models.Currency]{}, err
	}
	return models.NewPage(items, total, p), nil
}

func (s *CatalogService) GetCurrency(ctx context.Context, id uuid.UUID) (*models.Currency, error) {
	return s.store.GetCurrency(ctx, id)
}

// CreateCurrency stores a currency whose schedule already covers the active
// catalog with zero defaults.
func (s *CatalogService) CreateCurrency(ctx context.Context, rawTitle string) (*models.Currency, error) {
	title, err := normalizeTitle(rawTitle)
	if err != nil {
		return nil, err
	}
	pmTitles, currencyTitles, err := s.activeTitles(ctx)
	if err != nil {
		return nil, err
	}

	c := &models.Currency{ID: uuid.New(), Title: title}
	c.SetSchedule(domain.CommissionSchedule{}.Reconcile(title, pmTitles, currencyTitles))
	if err := s.store.CreateCurrency(ctx, c); err != nil {
		return nil, err
	}
	zap.L().Info("currency created", zap.String("currency_id", c.ID.String()), zap.String("title", title))
	return c, nil
}

func (s *CatalogService) UpdateCurrency(ctx context.Context, id uuid.UUID, in CurrencyUpdate) (*models.Currency, error) {
	c, err := s.store.GetCurrency(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		if c.Title, err = normalizeTitle(*in.Title); err != nil {
			return nil, err
		}
	}
	for _, upd := range []struct {
		src *domain.Commissions
		dst *domain.Commissions
	}{
		{in.BuyCommissions, &c.BuyCommissions},
		{in.SellCommissions, &c.SellCommissions},
		{in.ExchangeCommissions, &c.ExchangeCommissions},
	} {
		if upd.src == nil {
			continue
		}
		if err := upd.src.Validate(); err != nil {
			return nil, err
		}
		*upd.dst = *upd.src
	}
	if err := s.store.UpdateCurrency(ctx, c); err != nil {
		return nil, err
	}
	zap.L().Info("currency updated", zap.String("currency_id", c.ID.String()), zap.String("title", c.Title))
	return c, nil
}

func (s *CatalogService) ArchiveCurrency(ctx context.Context, id uuid.UUID) error {
	if err := s.store.ArchiveCurrency(ctx, id); err != nil {
		return err
	}
	zap.L().Info("currency archived", zap.String("currency_id", id.String()))
	return nil
}

func (s *CatalogService) ListPaymentMethods(ctx context.Context, p models.ListParams) (models.Page[models.PaymentMethod], error) {
	p = p.Normalize()
	items, total, err := s.store.ListPaymentMethods(ctx, p)
	if err != nil {
		return models.Page[models.PaymentMethod]{}, err
	}
	return models.NewPage(items, total, p), nil
}

func (s *CatalogService) CreatePaymentMethod(ctx context.Context, rawTitle string, bankingEnabled bool) (*models.PaymentMethod, error) {
	title, err := normalizeTitle(rawTitle)
	if err != nil {
		return nil, err
	}
	pm := &models.PaymentMethod{ID: uuid.New(), Title: title, IsBankingEnabled: bankingEnabled}
	if err := s.store.CreatePaymentMethod(ctx, pm); err != nil {
		return nil, err
	}
	zap.L().Info("payment method created", zap.String("payment_method_id", pm.ID.String()), zap.String("title", title))
	return pm, nil
}

func (s *CatalogService) UpdatePaymentMethod(ctx context.Context, id uuid.UUID, in PaymentMethodUpdate) (*models.PaymentMethod, error) {
	pm, err := s.store.GetPaymentMethod(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		if pm.Title, err = normalizeTitle(*in.Title); err != nil {
			return nil, err
		}
	}
	if in.IsBankingEnabled != nil {
		pm.IsBankingEnabled = *in.IsBankingEnabled
	}
	if err := s.store.UpdatePaymentMethod(ctx, pm); err != nil {
		return nil, err
	}
	zap.L().Info("payment method updated", zap.String("payment_method_id", pm.ID.String()), zap.String("title", pm.Title))
	return pm, nil
}

// SetBankingEnabled toggles whether accounts of this method need bank details.
func (s *CatalogService) SetBankingEnabled(ctx context.Context, id uuid.UUID, enabled bool) (*models.PaymentMethod, error) {
	return s.UpdatePaymentMethod(ctx, id, PaymentMethodUpdate{IsBankingEnabled: &enabled})
}

func (s *CatalogService) ArchivePaymentMethod(ctx context.Context, id uuid.UUID) error {
	if err := s.store.ArchivePaymentMethod(ctx, id); err != nil {
		return err
	}
	zap.L().Info("payment method archived", zap.String("payment_method_id", id.String()))
	return nil
}

func (s *CatalogService) activeTitles(ctx context.Context) (paymentMethods, currencies []string, err error) {
	pms, err := s.store.ListActivePaymentMethods(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list payment methods: %w", err)
	}
	curs, err := s.store.ListActiveCurrencies(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list currencies: %w", err)
	}
	for _, pm := range pms {
		paymentMethods = append(paymentMethods, pm.Title)
	}
	for _, c := range curs {
		currencies = append(currencies, c.Title)
	}
	return paymentMethods, currencies, nil
}
