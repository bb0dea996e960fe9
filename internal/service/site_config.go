package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SiteConfigUpdate carries optional replacements; nil fields are left alone.
type SiteConfigUpdate struct {
	EmailAddress               *string
	EmailPassword              *string
	BuyOrderConfirmedText      *string
	SellOrderConfirmedText     *string
	ExchangeOrderConfirmedText *string
}

// SiteConfigService is the accessor of the settings singleton.
type SiteConfigService struct {
	store SiteConfigStore
}

func NewSiteConfigService(store SiteConfigStore) *SiteConfigService {
	return &SiteConfigService{store: store}
}

// Get returns the only site config row. Zero rows is ErrConfigNotFound and
// more than one is ErrConfigAmbiguous; neither case picks a row silently.
func (s *SiteConfigService) Get(ctx context.Context) (*models.SiteConfig, error) {
	rows, err := s.store.ListSiteConfigs(ctx, 2)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, domain.ErrConfigNotFound
	case 1:
		return &rows[0], nil
	default:
		zap.L().Error("site config singleton violated", zap.Int("rows", len(rows)))
		return nil, domain.ErrConfigAmbiguous
	}
}

// GetPublic is the customer view without mail credentials.
func (s *SiteConfigService) GetPublic(ctx context.Context) (*models.SiteConfig, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	public := cfg.Public()
	return &public, nil
}

// Upsert creates the singleton on first use and updates it afterwards.
func (s *SiteConfigService) Upsert(ctx context.Context, in SiteConfigUpdate) (*models.SiteConfig, error) {
	cfg, err := s.Get(ctx)
	create := errors.Is(err, domain.ErrConfigNotFound)
	switch {
	case create:
		cfg = &models.SiteConfig{ID: uuid.New()}
	case err != nil:
		return nil, err
	}

	for _, f := range []struct {
		src *string
		dst *string
	}{
		{in.EmailAddress, &cfg.EmailAddress},
		{in.EmailPassword, &cfg.EmailPassword},
		{in.BuyOrderConfirmedText, &cfg.BuyOrderConfirmedText},
		{in.SellOrderConfirmedText, &cfg.SellOrderConfirmedText},
		{in.ExchangeOrderConfirmedText, &cfg.ExchangeOrderConfirmedText},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}

	if create {
		if err := s.store.CreateSiteConfig(ctx, cfg); err != nil {
			return nil, fmt.Errorf("create site config: %w", err)
		}
	} else if err := s.store.UpdateSiteConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("update site config: %w", err)
	}
	zap.L().Info("site config saved", zap.Bool("created", create))
	return cfg, nil
}
