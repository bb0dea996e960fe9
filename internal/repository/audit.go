package repository

import (
	"context"
	"fmt"

	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/google/uuid"
)

// InsertAuditLog stores a single immutable audit record.
func (q *Queries) InsertAuditLog(ctx context.Context, e *models.AuditEntry) error {
	query := `INSERT INTO audit_log (entity_type, entity_id, actor_id, action, prev_state, next_state)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	if err := q.db.QueryRow(ctx, query, e.EntityType, e.EntityID, e.ActorID, e.Action,
		textParam(e.PrevState), textParam(e.NextState)).Scan(&e.ID, &e.CreatedAt); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ListAuditLog returns the trail of one entity, oldest first.
func (q *Queries) ListAuditLog(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditEntry, error) {
	rows, err := q.db.Query(ctx, `SELECT id, entity_type, entity_id, actor_id, action,
			COALESCE(prev_state, ''), COALESCE(next_state, ''), created_at
		FROM audit_log WHERE entity_type = $1 AND entity_id = $2 ORDER BY id`, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	defer rows.Close()

	var out []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.ActorID, &e.Action, &e.PrevState, &e.NextState, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func textParam(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
