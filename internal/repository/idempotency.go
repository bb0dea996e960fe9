package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayo6706/exchange-brokerage/internal/idempotency"
	"github.com/jackc/pgx/v5"
)

// GetIdempotencyKey loads the durable record for key.
func (q *Queries) GetIdempotencyKey(ctx context.Context, key string) (*idempotency.Row, error) {
	var row idempotency.Row
	err := q.db.QueryRow(ctx, `SELECT idempotency_key, request_hash, response_status, response_body, content_type, in_progress
		FROM idempotency_keys WHERE idempotency_key = $1`, key).
		Scan(&row.Key, &row.RequestHash, &row.Status, &row.Body, &row.ContentType, &row.InProgress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, idempotency.ErrNotFound
		}
		return nil, fmt.Errorf("get idempotency key: %w", err)
	}
	return &row, nil
}

// ReserveIdempotencyKey claims key for an in-flight request. It reports false
// when another request already holds it.
func (q *Queries) ReserveIdempotencyKey(ctx context.Context, key, requestHash, method, path string) (bool, error) {
	tag, err := q.db.Exec(ctx, `INSERT INTO idempotency_keys (idempotency_key, request_hash, method, path)
		VALUES ($1, $2, $3, $4) ON CONFLICT (idempotency_key) DO NOTHING`, key, requestHash, method, path)
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// FinalizeIdempotencyKey stores the response of the request holding key.
func (q *Queries) FinalizeIdempotencyKey(ctx context.Context, key, requestHash string, status int, body []byte, contentType string) (*idempotency.Row, error) {
	var row idempotency.Row
	err := q.db.QueryRow(ctx, `UPDATE idempotency_keys
		SET response_status = $1, response_body = $2, content_type = $3, in_progress = FALSE, updated_at = NOW()
		WHERE idempotency_key = $4 AND request_hash = $5
		RETURNING idempotency_key, request_hash, response_status, response_body, content_type, in_progress`,
		status, body, contentType, key, requestHash).
		Scan(&row.Key, &row.RequestHash, &row.Status, &row.Body, &row.ContentType, &row.InProgress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, idempotency.ErrNotFound
		}
		return nil, fmt.Errorf("finalize idempotency key: %w", err)
	}
	return &row, nil
}

// ReleaseIdempotencyKey drops an unfinished reservation so the client may retry.
func (q *Queries) ReleaseIdempotencyKey(ctx context.Context, key, requestHash string) error {
	if _, err := q.db.Exec(ctx, `DELETE FROM idempotency_keys
		WHERE idempotency_key = $1 AND request_hash = $2 AND in_progress`, key, requestHash); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
