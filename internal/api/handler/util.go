package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayo6706/exchange-brokerage/internal/api/middleware"
	"github.com/ayo6706/exchange-brokerage/internal/api/problem"
	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/ayo6706/exchange-brokerage/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

// errorProblems is checked in order; specific sentinels come before the
// family they belong to. A missing settlement account is a 400 because the
// client fixes it by registering one.
var errorProblems = []struct {
	err    error
	status int
	slug   string
}{
	{domain.ErrAccountNotFound, http.StatusBadRequest, "account/not-found"},
	{domain.ErrInvalidStatus, http.StatusBadRequest, "order/invalid-status"},
	{domain.ErrInvalidAmount, http.StatusBadRequest, "request/invalid-amount"},
	{domain.ErrInvalidAccountType, http.StatusBadRequest, "account/invalid-type"},
	{domain.ErrValidation, http.StatusBadRequest, "request/invalid-parameters"},
	{domain.ErrOrderNotFound, http.StatusNotFound, "order/not-found"},
	{domain.ErrCurrencyNotFound, http.StatusNotFound, "currency/not-found"},
	{domain.ErrPaymentMethodNotFound, http.StatusNotFound, "payment-method/not-found"},
	{domain.ErrConfigNotFound, http.StatusNotFound, "config/not-found"},
	{domain.ErrNotFound, http.StatusNotFound, "resource/not-found"},
	{domain.ErrAlreadyExists, http.StatusConflict, "resource/already-exists"},
	{domain.ErrInvalidTransition, http.StatusConflict, "order/invalid-transition"},
	{domain.ErrOrderClosed, http.StatusConflict, "order/closed"},
}

// writeServiceError maps a service error onto a problem response. Unknown
// errors are logged and hidden behind a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	for _, p := range errorProblems {
		if errors.Is(err, p.err) {
			RespondError(w, r, p.status, p.slug, err.Error())
			return
		}
	}
	if status, slug, message, ok := mapDBError(err); ok {
		RespondError(w, r, status, slug, message)
		return
	}

	zap.L().Error(op+" failed", zap.Error(err), zap.String("trace_id", middleware.TraceIDFromContext(r.Context())))
	switch {
	case errors.Is(err, domain.ErrConfigAmbiguous):
		RespondError(w, r, http.StatusInternalServerError, "config/ambiguous", "site config is misconfigured")
	case errors.Is(err, service.ErrResyncIncomplete):
		RespondError(w, r, http.StatusInternalServerError, "commissions/resync-incomplete", err.Error())
	default:
		RespondError(w, r, http.StatusInternalServerError, "internal-server-error", "unexpected server error")
	}
}

func mapDBError(err error) (status int, problemType, message string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return 0, "", "", false
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		return http.StatusConflict, "db/unique-violation", "resource already exists", true
	case "23503": // foreign_key_violation
		return http.StatusBadRequest, "db/foreign-key-violation", "invalid reference", true
	case "23514": // check_violation
		return http.StatusBadRequest, "db/check-violation", "request violates data constraints", true
	case "22003": // numeric_value_out_of_range
		return http.StatusBadRequest, "request/invalid-amount", "amount is out of range", true
	case "23502": // not_null_violation
		return http.StatusBadRequest, "db/not-null-violation", "missing required field", true
	default:
		return 0, "", "", false
	}
}

func requestActor(r *http.Request) (uuid.UUID, bool, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return uuid.Nil, false, errors.New("missing user in auth context")
	}

	actorID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, false, errors.New("invalid user_id in auth context")
	}

	return actorID, middleware.UserRoleFromContext(r.Context()) == domain.RoleAdmin, nil
}

// actorOrUnauthorized writes a 401 and reports false when the context has no
// usable user id.
func actorOrUnauthorized(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return uuid.Nil, false
	}
	return actorID, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-"+name+"-id", "Invalid "+name+" ID")
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return false
	}
	return true
}

// parseListParams reads search, sort_by, order, page and page_size.
func parseListParams(r *http.Request) (models.ListParams, error) {
	q := r.URL.Query()
	p := models.ListParams{
		Search: strings.TrimSpace(q.Get("search")),
		SortBy: strings.TrimSpace(q.Get("sort_by")),
	}
	switch strings.ToLower(strings.TrimSpace(q.Get("order"))) {
	case "", "asc":
	case "desc":
		p.SortDesc = true
	default:
		return p, fmt.Errorf("order must be asc or desc")
	}
	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"page", &p.Page},
		{"page_size", &p.PageSize},
	} {
		raw := strings.TrimSpace(q.Get(f.name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return p, fmt.Errorf("%s must be a positive integer", f.name)
		}
		*f.dst = n
	}
	return p.Normalize(), nil
}

func listParamsOrBadRequest(w http.ResponseWriter, r *http.Request) (models.ListParams, bool) {
	p, err := parseListParams(r)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-query", err.Error())
		return p, false
	}
	return p, true
}
