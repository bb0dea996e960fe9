package repository

import (
	"context"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/google/uuid"
)

const userColumns = `id, email, first_name, last_name, role, created_at`

// CreateUser inserts a principal mirrored from the identity service.
func (q *Queries) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, email, first_name, last_name, role, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING created_at`
	err := q.db.QueryRow(ctx, query, user.ID, user.Email, user.FirstName, user.LastName, user.Role).Scan(&user.CreatedAt)
	return translate(err, domain.ErrUserNotFound, "create user")
}

// UpsertUser creates the mirror row for a principal or refreshes its profile.
// created_at is kept from the first insert.
func (q *Queries) UpsertUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, email, first_name, last_name, role, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			role = EXCLUDED.role
		RETURNING created_at`
	err := q.db.QueryRow(ctx, query, user.ID, user.Email, user.FirstName, user.LastName, user.Role).Scan(&user.CreatedAt)
	return translate(err, domain.ErrUserNotFound, "upsert user")
}

func (q *Queries) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	err := q.db.QueryRow(ctx, query, id).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, translate(err, domain.ErrUserNotFound, "get user")
	}
	return &u, nil
}
