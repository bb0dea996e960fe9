package repository

import (
	"context"
	"fmt"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const paymentMethodColumns = `id, title, is_banking_enabled, is_archived, created_at, updated_at`

var paymentMethodSortColumns = map[string]string{
	"title":            "title",
	"isBankingEnabled": "is_banking_enabled",
	"createdAt":        "created_at",
}

func scanPaymentMethod(row pgx.Row) (*models.PaymentMethod, error) {
	var pm models.PaymentMethod
	if err := row.Scan(&pm.ID, &pm.Title, &pm.IsBankingEnabled, &pm.IsArchived, &pm.CreatedAt, &pm.UpdatedAt); err != nil {
		return nil, err
	}
	return &pm, nil
}

func (q *Queries) CreatePaymentMethod(ctx context.Context, pm *models.PaymentMethod) error {
	query := `INSERT INTO payment_methods (id, title, is_banking_enabled)
		VALUES ($1, $2, $3) RETURNING created_at, updated_at`
	err := q.db.QueryRow(ctx, query, pm.ID, pm.Title, pm.IsBankingEnabled).Scan(&pm.CreatedAt, &pm.UpdatedAt)
	return translate(err, domain.ErrPaymentMethodNotFound, "create payment method")
}

func (q *Queries) GetPaymentMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	query := `SELECT ` + paymentMethodColumns + ` FROM payment_methods WHERE id = $1 AND NOT is_archived`
	pm, err := scanPaymentMethod(q.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err, domain.ErrPaymentMethodNotFound, "get payment method")
	}
	return pm, nil
}

func (q *Queries) ListActivePaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	query := `SELECT ` + paymentMethodColumns + ` FROM payment_methods WHERE NOT is_archived ORDER BY created_at, id`
	return q.queryPaymentMethods(ctx, query)
}

func (q *Queries) ListPaymentMethods(ctx context.Context, p models.ListParams) ([]models.PaymentMethod, int, error) {
	var a args
	where := "WHERE NOT is_archived"
	if p.Search != "" {
		where += " AND title ILIKE " + a.add(searchPattern(p.Search))
	}

	var total int
	if err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM payment_methods `+where, a...).Scan(&total); err != nil {
		return nil, 0, translate(err, domain.ErrPaymentMethodNotFound, "count payment methods")
	}

	query := fmt.Sprintf(`SELECT %s FROM payment_methods %s %s LIMIT %s OFFSET %s`,
		paymentMethodColumns, where, orderBy(p, paymentMethodSortColumns, ""), a.add(p.PageSize), a.add(p.Offset()))
	items, err := q.queryPaymentMethods(ctx, query, a...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (q *Queries) queryPaymentMethods(ctx context.Context, query string, params ...any) ([]models.PaymentMethod, error) {
	rows, err := q.db.Query(ctx, query, params...)
	if err != nil {
		return nil, translate(err, domain.ErrPaymentMethodNotFound, "list payment methods")
	}
	defer rows.Close()

	var out []models.PaymentMethod
	for rows.Next() {
		pm, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		out = append(out, *pm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment methods: %w", err)
	}
	return out, nil
}

func (q *Queries) UpdatePaymentMethod(ctx context.Context, pm *models.PaymentMethod) error {
	query := `UPDATE payment_methods SET title = $2, is_banking_enabled = $3, updated_at = NOW()
		WHERE id = $1 AND NOT is_archived RETURNING updated_at`
	err := q.db.QueryRow(ctx, query, pm.ID, pm.Title, pm.IsBankingEnabled).Scan(&pm.UpdatedAt)
	return translate(err, domain.ErrPaymentMethodNotFound, "update payment method")
}

func (q *Queries) ArchivePaymentMethod(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `UPDATE payment_methods SET is_archived = TRUE, updated_at = NOW() WHERE id = $1 AND NOT is_archived`, id)
	if err != nil {
		return translate(err, domain.ErrPaymentMethodNotFound, "archive payment method")
	}
	return requireOne(tag, domain.ErrPaymentMethodNotFound)
}
