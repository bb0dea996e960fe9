package repository

import (
	"errors"
	"fmt"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNumericOverflow     = "22003"
)

// translate maps driver errors onto domain sentinels so callers never see
// pgx types. notFound is returned for pgx.ErrNoRows.
func translate(err error, notFound error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrAlreadyExists)
		case codeForeignKeyViolation, codeCheckViolation:
			return fmt.Errorf("%s: %w: %s", op, domain.ErrInvalidParameters, pgErr.ConstraintName)
		case codeNumericOverflow:
			return fmt.Errorf("%s: %w", op, domain.ErrInvalidAmount)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireOne(tag pgconn.CommandTag, notFound error) error {
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}
