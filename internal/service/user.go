package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService mirrors authenticated principals into the users table so that
// accounts and orders can reference them.
type UserService struct {
	store UserDirectory

	mu     sync.Mutex
	synced map[uuid.UUID]models.User
}

func NewUserService(store UserDirectory) *UserService {
	return &UserService{store: store, synced: map[uuid.UUID]models.User{}}
}

// Sync upserts the principal's profile. A principal without an email cannot
// be mirrored and is left to whatever row already exists. Unchanged profiles
// are not written again by this process.
func (s *UserService) Sync(ctx context.Context, u models.User) error {
	if u.ID == uuid.Nil {
		return fmt.Errorf("%w: user id is required", domain.ErrInvalidParameters)
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
	if u.Role == "" {
		u.Role = domain.RoleCustomer
	}
	if u.Email == "" {
		return nil
	}

	s.mu.Lock()
	prev, seen := s.synced[u.ID]
	s.mu.Unlock()
	if seen && sameProfile(prev, u) {
		return nil
	}

	if err := s.store.UpsertUser(ctx, &u); err != nil {
		return fmt.Errorf("sync user: %w", err)
	}
	zap.L().Debug("user mirrored", zap.String("user_id", u.ID.String()), zap.String("role", u.Role))

	s.mu.Lock()
	s.synced[u.ID] = u
	s.mu.Unlock()
	return nil
}

func sameProfile(a, b models.User) bool {
	return a.Email == b.Email && a.FirstName == b.FirstName && a.LastName == b.LastName && a.Role == b.Role
}
