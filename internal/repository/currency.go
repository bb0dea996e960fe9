package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const currencyColumns = `id, title, buy_commissions, sell_commissions, exchange_commissions, is_archived, created_at, updated_at`

var currencySortColumns = map[string]string{
	"title":     "title",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

func scanCurrency(row pgx.Row) (*models.Currency, error) {
	var (
		c                   models.Currency
		buy, sell, exchange []byte
	)
	if err := row.Scan(&c.ID, &c.Title, &buy, &sell, &exchange, &c.IsArchived, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	for _, col := range []struct {
		raw []byte
		dst *domain.Commissions
	}{{buy, &c.BuyCommissions}, {sell, &c.SellCommissions}, {exchange, &c.ExchangeCommissions}} {
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("decode commissions of %s: %w", c.Title, err)
		}
	}
	return &c, nil
}

func encodeCommissions(cs domain.Commissions) (string, error) {
	if cs == nil {
		cs = domain.Commissions{}
	}
	b, err := json.Marshal(cs)
	if err != nil {
		return "", fmt.Errorf("encode commissions: %w", err)
	}
	return string(b), nil
}

func encodeSchedule(s domain.CommissionSchedule) (buy, sell, exchange string, err error) {
	if buy, err = encodeCommissions(s.Buy); err != nil {
		return
	}
	if sell, err = encodeCommissions(s.Sell); err != nil {
		return
	}
	exchange, err = encodeCommissions(s.Exchange)
	return
}

func (q *Queries) CreateCurrency(ctx context.Context, c *models.Currency) error {
	buy, sell, exchange, err := encodeSchedule(c.Schedule())
	if err != nil {
		return err
	}
	query := `INSERT INTO currencies (id, title, buy_commissions, sell_commissions, exchange_commissions)
		VALUES ($1, $2, $3::jsonb, $4::jsonb, $5::jsonb) RETURNING created_at, updated_at`
	err = q.db.QueryRow(ctx, query, c.ID, c.Title, buy, sell, exchange).Scan(&c.CreatedAt, &c.UpdatedAt)
	return translate(err, domain.ErrCurrencyNotFound, "create currency")
}

func (q *Queries) GetCurrency(ctx context.Context, id uuid.UUID) (*models.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies WHERE id = $1 AND NOT is_archived`
	c, err := scanCurrency(q.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, domain.ErrCurrencyNotFound, "get currency")
	}
	return c, nil
}

// GetCurrencyByTitle returns the active currency with the given title.
func (q *Queries) GetCurrencyByTitle(ctx context.Context, title string) (*models.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies WHERE title = $1 AND NOT is_archived`
	c, err := scanCurrency(q.db.QueryRow(ctx, query, title))
	if err != nil {
		return nil, translate(err, domain.ErrCurrencyNotFound, "get currency by title")
	}
	return c, nil
}

func (q *Queries) ListActiveCurrencies(ctx context.Context) ([]models.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies WHERE NOT is_archived ORDER BY created_at, id`
	return q.queryCurrencies(ctx, query)
}

func (q *Queries) ListCurrencies(ctx context.Context, p models.ListParams) ([]models.Currency, int, error) {
	var a args
	where := "WHERE NOT is_archived"
	if p.Search != "" {
		where += " AND title ILIKE " + a.add(searchPattern(p.Search))
	}

	var total int
	if err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM currencies `+where, a...).Scan(&total); err != nil {
		return nil, 0, translate(err, domain.ErrCurrencyNotFound, "count currencies")
	}

	query := fmt.Sprintf(`SELECT %s FROM currencies %s %s LIMIT %s OFFSET %s`,
		currencyColumns, where, orderBy(p, currencySortColumns, ""), a.add(p.PageSize), a.add(p.Offset()))
	items, err := q.queryCurrencies(ctx, query, a...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (q *Queries) queryCurrencies(ctx context.Context, query string, params ...any) ([]models.Currency, error) {
	rows, err := q.db.Query(ctx, query, params...)
	if err != nil {
		return nil, translate(err, domain.ErrCurrencyNotFound, "list currencies")
	}
	defer rows.Close()

	var out []models.Currency
	for rows.Next() {
		c, err := scanCurrency(rows)
		if err != nil {
			return nil, fmt.Errorf("scan currency: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate currencies: %w", err)
	}
	return out, nil
}

// UpdateCurrency persists the title and all three commission lists.
func (q *Queries) UpdateCurrency(ctx context.Context, c *models.Currency) error {
	buy, sell, exchange, err := encodeSchedule(c.Schedule())
	if err != nil {
		return err
	}
	query := `UPDATE currencies
		SET title = $2, buy_commissions = $3::jsonb, sell_commissions = $4::jsonb, exchange_commissions = $5::jsonb, updated_at = NOW()
		WHERE id = $1 AND NOT is_archived
		RETURNING updated_at`
	err = q.db.QueryRow(ctx, query, c.ID, c.Title, buy, sell, exchange).Scan(&c.UpdatedAt)
	return translate(err, domain.ErrCurrencyNotFound, "update currency")
}

// UpdateCurrencyCommissions rewrites only the commission lists.
func (q *Queries) UpdateCurrencyCommissions(ctx context.Context, id uuid.UUID, s domain.CommissionSchedule) error {
	buy, sell, exchange, err := encodeSchedule(s)
	if err != nil {
		return err
	}
	tag, err := q.db.Exec(ctx, `UPDATE currencies
		SET buy_commissions = $2::jsonb, sell_commissions = $3::jsonb, exchange_commissions = $4::jsonb, updated_at = NOW()
		WHERE id = $1 AND NOT is_archived`, id, buy, sell, exchange)
	if err != nil {
		return translate(err, domain.ErrCurrencyNotFound, "update currency commissions")
	}
	return requireOne(tag, domain.ErrCurrencyNotFound)
}

func (q *Queries) ArchiveCurrency(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `UPDATE currencies SET is_archived = TRUE, updated_at = NOW() WHERE id = $1 AND NOT is_archived`, id)
	if err != nil {
		return translate(err, domain.ErrCurrencyNotFound, "archive currency")
	}
	return requireOne(tag, domain.ErrCurrencyNotFound)
}
