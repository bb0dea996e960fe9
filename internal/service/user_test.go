package service

import (
	"context"
	"testing"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/ayo6706/exchange-brokerage/internal/testutil/memstore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDirectory struct {
	*memstore.Store
	upserts int
}

func (d *countingDirectory) UpsertUser(ctx context.Context, u *models.User) error {
	d.upserts++
	return d.Store.UpsertUser(ctx, u)
}

func TestUserSyncMirrorsPrincipal(t *testing.T) {
	ctx := context.Background()
	dir := &countingDirectory{Store: memstore.New()}
	users := NewUserService(dir)
	id := uuid.New()

	require.NoError(t, users.Sync(ctx, models.User{ID: id, Email: " Chi@Example.com ", FirstName: "Chi"}))
	got, err := dir.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "chi@example.com", got.Email)
	assert.Equal(t, domain.RoleCustomer, got.Role)

	require.NoError(t, users.Sync(ctx, models.User{ID: id, Email: "chi@example.com", FirstName: "Chi"}))
	assert.Equal(t, 1, dir.upserts, "unchanged profile is not rewritten")

	require.NoError(t, users.Sync(ctx, models.User{ID: id, Email: "chi@example.com", FirstName: "Chi", LastName: "Okafor"}))
	assert.Equal(t, 2, dir.upserts)
	got, err = dir.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Chi Okafor", got.FullName())
}

func TestUserSyncEdgeCases(t *testing.T) {
	ctx := context.Background()
	dir := &countingDirectory{Store: memstore.New()}
	users := NewUserService(dir)

	assert.ErrorIs(t, users.Sync(ctx, models.User{Email: "x@example.com"}), domain.ErrInvalidParameters)

	require.NoError(t, users.Sync(ctx, models.User{ID: uuid.New()}), "no email leaves the mirror alone")
	assert.Zero(t, dir.upserts)

	require.NoError(t, users.Sync(ctx, models.User{ID: uuid.New(), Email: "same@example.com"}))
	err := users.Sync(ctx, models.User{ID: uuid.New(), Email: "same@example.com"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}
