package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/ayo6706/exchange-brokerage/internal/api/problem"
	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserSyncer mirrors a principal locally.
type UserSyncer interface {
	Sync(ctx context.Context, u models.User) error
}

// UserSyncMiddleware upserts the authenticated caller before the handler runs.
// It must be mounted after AuthMiddleware.
func UserSyncMiddleware(users UserSyncer, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(UserIDFromContext(r.Context()))
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.Type(errInvalidClaims.slug), "", errInvalidClaims.detail)
				return
			}
			p := ProfileFromContext(r.Context())
			err = users.Sync(r.Context(), models.User{
				ID:        id,
				Email:     p.Email,
				FirstName: p.FirstName,
				LastName:  p.LastName,
				Role:      UserRoleFromContext(r.Context()),
			})
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, domain.ErrAlreadyExists):
				problem.Write(w, r, http.StatusConflict, problem.Type("auth/email-conflict"), "", "email is registered to another user")
			default:
				logger.Error("user sync failed", zap.Error(err), zap.String("user_id", id.String()), zap.String("trace_id", TraceIDFromContext(r.Context())))
				problem.Write(w, r, http.StatusInternalServerError, problem.Type("auth/user-sync-failed"), "", "could not load user")
			}
		})
	}
}
