package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, user_id, type, status, first_amount::text, second_amount::text,
	service_charges, sent_from, received_in, is_archived, created_at, updated_at`

var orderSortColumns = map[string]string{
	"createdAt":    "created_at",
	"updatedAt":    "updated_at",
	"type":         "type",
	"status":       "status",
	"firstAmount":  "first_amount",
	"secondAmount": "second_amount",
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var (
		o                models.Order
		orderType        string
		status           string
		first, second    string
		sentFrom, recvIn []byte
	)
	err := row.Scan(&o.ID, &o.UserID, &orderType, &status, &first, &second,
		&o.ServiceCharges, &sentFrom, &recvIn, &o.IsArchived, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Type = domain.OrderType(orderType)
	o.Status = domain.OrderStatus(status)
	if o.FirstAmount, err = decimal.NewFromString(first); err != nil {
		return nil, fmt.Errorf("parse first_amount: %w", err)
	}
	if o.SecondAmount, err = decimal.NewFromString(second); err != nil {
		return nil, fmt.Errorf("parse second_amount: %w", err)
	}
	if err := json.Unmarshal(sentFrom, &o.SentFrom); err != nil {
		return nil, fmt.Errorf("decode sent_from: %w", err)
	}
	if err := json.Unmarshal(recvIn, &o.ReceivedIn); err != nil {
		return nil, fmt.Errorf("decode received_in: %w", err)
	}
	return &o, nil
}

func (q *Queries) CreateOrder(ctx context.Context, o *models.Order) error {
	sentFrom, err := json.Marshal(o.SentFrom)
	if err != nil {
		return fmt.Errorf("encode sent_from: %w", err)
	}
	recvIn, err := json.Marshal(o.ReceivedIn)
	if err != nil {
		return fmt.Errorf("encode received_in: %w", err)
	}
	query := `INSERT INTO orders (id, user_id, type, status, first_amount, second_amount, service_charges, sent_from, received_in)
		VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7, $8::jsonb, $9::jsonb)
		RETURNING created_at, updated_at`
	err = q.db.QueryRow(ctx, query, o.ID, o.UserID, string(o.Type), string(o.Status),
		o.FirstAmount.String(), o.SecondAmount.StringFixed(2), o.ServiceCharges, string(sentFrom), string(recvIn)).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	return translate(err, domain.ErrOrderNotFound, "create order")
}

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := scanOrder(q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND NOT is_archived`, id))
	if err != nil {
		return nil, translate(err, domain.ErrOrderNotFound, "get order")
	}
	return o, nil
}

func (q *Queries) getOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := scanOrder(q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND NOT is_archived FOR UPDATE`, id))
	if err != nil {
		return nil, translate(err, domain.ErrOrderNotFound, "lock order")
	}
	return o, nil
}

// ListOrders matches the search term against the order id, both asset titles
// and the status.
func (q *Queries) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, int, error) {
	var (
		a     args
		conds = []string{"NOT is_archived"}
	)
	if f.UserID != nil {
		conds = append(conds, "user_id = "+a.add(*f.UserID))
	}
	if f.Type != "" {
		conds = append(conds, "type = "+a.add(string(f.Type)))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+a.add(string(f.Status)))
	}
	if f.Search != "" {
		p := a.add(searchPattern(f.Search))
		conds = append(conds, fmt.Sprintf(`(id::text ILIKE %[1]s OR sent_from->>'title' ILIKE %[1]s
			OR received_in->>'title' ILIKE %[1]s OR status ILIKE %[1]s)`, p))
	}
	where := "WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders `+where, a...).Scan(&total); err != nil {
		return nil, 0, translate(err, domain.ErrOrderNotFound, "count orders")
	}

	query := fmt.Sprintf(`SELECT %s FROM orders %s %s LIMIT %s OFFSET %s`,
		orderColumns, where, orderBy(f.ListParams, orderSortColumns, ""), a.add(f.PageSize), a.add(f.Offset()))
	rows, err := q.db.Query(ctx, query, a...)
	if err != nil {
		return nil, 0, translate(err, domain.ErrOrderNotFound, "list orders")
	}
	defer rows.Close()

	var out []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", err)
	}
	return out, total, nil
}

func (q *Queries) setOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*models.Order, error) {
	query := `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 AND NOT is_archived RETURNING ` + orderColumns
	o, err := scanOrder(q.db.QueryRow(ctx, query, id, string(status)))
	if err != nil {
		return nil, translate(err, domain.ErrOrderNotFound, "update order status")
	}
	return o, nil
}

// TransitionOrderStatus locks the order, asks check whether its current status
// may move to next, then persists the change with an audit entry in the same
// transaction. When check reports false the order is returned unchanged.
func (s *Store) TransitionOrderStatus(ctx context.Context, id uuid.UUID, next domain.OrderStatus, actorID *uuid.UUID, check func(current domain.OrderStatus) (bool, error)) (*models.Order, error) {
	var out *models.Order
	err := s.RunInTx(ctx, func(q *Queries) error {
		current, err := q.getOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		apply, err := check(current.Status)
		if err != nil {
			return err
		}
		if !apply {
			out = current
			return nil
		}
		updated, err := q.setOrderStatus(ctx, id, next)
		if err != nil {
			return err
		}
		if err := q.InsertAuditLog(ctx, &models.AuditEntry{
			EntityType: "order",
			EntityID:   id,
			ActorID:    actorID,
			Action:     "order.status_changed",
			PrevState:  string(current.Status),
			NextState:  string(next),
		}); err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (q *Queries) setOrderPricing(ctx context.Context, o *models.Order) (*models.Order, error) {
	query := `UPDATE orders SET first_amount = $2::numeric, second_amount = $3::numeric, service_charges = $4, updated_at = NOW()
		WHERE id = $1 AND NOT is_archived RETURNING ` + orderColumns
	updated, err := scanOrder(q.db.QueryRow(ctx, query, o.ID, o.FirstAmount.String(), o.SecondAmount.StringFixed(2), o.ServiceCharges))
	if err != nil {
		return nil, translate(err, domain.ErrOrderNotFound, "amend order")
	}
	return updated, nil
}

// AmendOrder locks the order and lets amend rewrite its pricing fields. The
// asset snapshots, type, status and owner are never written. When amend
// reports false nothing is stored.
func (s *Store) AmendOrder(ctx context.Context, id uuid.UUID, actorID *uuid.UUID, amend func(o *models.Order) (bool, error)) (*models.Order, error) {
	var out *models.Order
	err := s.RunInTx(ctx, func(q *Queries) error {
		current, err := q.getOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		prev := current.PricingSummary()
		draft := *current
		apply, err := amend(&draft)
		if err != nil {
			return err
		}
		if !apply {
			out = current
			return nil
		}
		updated, err := q.setOrderPricing(ctx, &draft)
		if err != nil {
			return err
		}
		if err := q.InsertAuditLog(ctx, &models.AuditEntry{
			EntityType: "order",
			EntityID:   id,
			ActorID:    actorID,
			Action:     "order.amended",
			PrevState:  prev,
			NextState:  updated.PricingSummary(),
		}); err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ArchiveOrder soft-deletes the order and records who did it.
func (s *Store) ArchiveOrder(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) error {
	return s.RunInTx(ctx, func(q *Queries) error {
		tag, err := q.db.Exec(ctx, `UPDATE orders SET is_archived = TRUE, updated_at = NOW() WHERE id = $1 AND NOT is_archived`, id)
		if err != nil {
			return translate(err, domain.ErrOrderNotFound, "archive order")
		}
		if err := requireOne(tag, domain.ErrOrderNotFound); err != nil {
			return err
		}
		return q.InsertAuditLog(ctx, &models.AuditEntry{
			EntityType: "order",
			EntityID:   id,
			ActorID:    actorID,
			Action:     "order.archived",
			PrevState:  "active",
			NextState:  "archived",
		})
	})
}
