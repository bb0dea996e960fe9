package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/ayo6706/exchange-brokerage/internal/api/problem"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	userContextKey    contextKey = "user_id"
	roleContextKey    contextKey = "user_role"
	profileContextKey contextKey = "user_profile"
)

// Tokens are issued by the external identity service; this process only
// verifies them.
var verifier struct {
	mu       sync.RWMutex
	secret   []byte
	issuer   string
	audience string
}

type authClaims struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	jwt.RegisteredClaims
}

// Profile is the identity-service view of the caller carried in the token.
type Profile struct {
	Email     string
	FirstName string
	LastName  string
}

type authError struct {
	slug   string
	detail string
}

func (e *authError) Error() string { return e.detail }

var (
	errMissingHeader = &authError{"auth/authorization-header-required", "Authorization header required"}
	errTokenFormat   = &authError{"auth/invalid-token-format", "Invalid token format"}
	errInvalidToken  = &authError{"auth/invalid-token", "Invalid token"}
	errInvalidClaims = &authError{"auth/invalid-token-claims", "Invalid token claims"}
)

// SetJWTSecret installs the HS256 key. An empty secret is ignored.
func SetJWTSecret(secret string) {
	if secret == "" {
		return
	}
	verifier.mu.Lock()
	verifier.secret = []byte(secret)
	verifier.mu.Unlock()
}

// SetJWTValidation pins the expected iss and aud claims; blank disables the check.
func SetJWTValidation(issuer, audience string) {
	verifier.mu.Lock()
	verifier.issuer = strings.TrimSpace(issuer)
	verifier.audience = strings.TrimSpace(audience)
	verifier.mu.Unlock()
}

// JWTSecret returns a copy of the signing key.
func JWTSecret() []byte {
	verifier.mu.RLock()
	defer verifier.mu.RUnlock()
	return slices.Clone(verifier.secret)
}

// AuthMiddleware verifies the bearer token and puts the user id, role and
// profile on the request context.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := authenticate(r.Header.Get("Authorization"))
		if err != nil {
			var ae *authError
			if errors.As(err, &ae) {
				problem.Write(w, r, http.StatusUnauthorized, problem.Type(ae.slug), "", ae.detail)
				return
			}
			problem.Write(w, r, http.StatusInternalServerError, problem.Type("auth/misconfigured"), "", "auth is not configured")
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, claims.UserID)
		ctx = context.WithValue(ctx, roleContextKey, claims.Role)
		ctx = context.WithValue(ctx, profileContextKey, Profile{Email: claims.Email, FirstName: claims.FirstName, LastName: claims.LastName})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

var errNoSecret = errors.New("jwt secret not configured")

func authenticate(header string) (*authClaims, error) {
	if header == "" {
		return nil, errMissingHeader
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return nil, errTokenFormat
	}

	verifier.mu.RLock()
	secret, issuer, audience := verifier.secret, verifier.issuer, verifier.audience
	verifier.mu.RUnlock()
	if len(secret) == 0 {
		return nil, errNoSecret
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	if claims.UserID == "" || (claims.Subject != "" && claims.Subject != claims.UserID) {
		return nil, errInvalidClaims
	}
	return claims, nil
}

// RequireRole admits only callers whose token carries one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(roles, UserRoleFromContext(r.Context())) {
				problem.Write(w, r, http.StatusForbidden, problem.Type("auth/insufficient-permissions"), "", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext returns the authenticated user id, or "".
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userContextKey).(string)
	return v
}

// UserRoleFromContext returns the authenticated role, or "".
func UserRoleFromContext(ctx context.Context) string {
	v, _ := ctx.Value(roleContextKey).(string)
	return v
}

// ProfileFromContext returns the profile claims of the authenticated user.
func ProfileFromContext(ctx context.Context) Profile {
	v, _ := ctx.Value(profileContextKey).(Profile)
	return v
}
