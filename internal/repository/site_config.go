package repository

import (
	"context"
	"fmt"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
)

const siteConfigColumns = `id, email_address, email_password, buy_order_confirmed_text,
	sell_order_confirmed_text, exchange_order_confirmed_text, updated_at`

// ListSiteConfigs returns up to limit rows so callers can detect duplicates.
func (q *Queries) ListSiteConfigs(ctx context.Context, limit int) ([]models.SiteConfig, error) {
	rows, err := q.db.Query(ctx, `SELECT `+siteConfigColumns+` FROM site_config ORDER BY updated_at, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list site config: %w", err)
	}
	defer rows.Close()

	var out []models.SiteConfig
	for rows.Next() {
		var c models.SiteConfig
		if err := rows.Scan(&c.ID, &c.EmailAddress, &c.EmailPassword, &c.BuyOrderConfirmedText,
			&c.SellOrderConfirmedText, &c.ExchangeOrderConfirmedText, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan site config: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate site config: %w", err)
	}
	return out, nil
}

func (q *Queries) CreateSiteConfig(ctx context.Context, c *models.SiteConfig) error {
	query := `INSERT INTO site_config (id, email_address, email_password, buy_order_confirmed_text,
			sell_order_confirmed_text, exchange_order_confirmed_text)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING updated_at`
	err := q.db.QueryRow(ctx, query, c.ID, c.EmailAddress, c.EmailPassword, c.BuyOrderConfirmedText,
		c.SellOrderConfirmedText, c.ExchangeOrderConfirmedText).Scan(&c.UpdatedAt)
	return translate(err, domain.ErrConfigNotFound, "create site config")
}

func (q *Queries) UpdateSiteConfig(ctx context.Context, c *models.SiteConfig) error {
	query := `UPDATE site_config SET email_address = $2, email_password = $3, buy_order_confirmed_text = $4,
			sell_order_confirmed_text = $5, exchange_order_confirmed_text = $6, updated_at = NOW()
		WHERE id = $1 RETURNING updated_at`
	err := q.db.QueryRow(ctx, query, c.ID, c.EmailAddress, c.EmailPassword, c.BuyOrderConfirmedText,
		c.SellOrderConfirmedText, c.ExchangeOrderConfirmedText).Scan(&c.UpdatedAt)
	return translate(err, domain.ErrConfigNotFound, "update site config")
}
