package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ayo6706/exchange-brokerage/internal/api"
	"github.com/ayo6706/exchange-brokerage/internal/api/middleware"
	"github.com/ayo6706/exchange-brokerage/internal/config"
	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/events"
	"github.com/ayo6706/exchange-brokerage/internal/idempotency"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/ayo6706/exchange-brokerage/internal/notification"
	"github.com/ayo6706/exchange-brokerage/internal/service"
	"github.com/ayo6706/exchange-brokerage/internal/testutil/memstore"
	"github.com/ayo6706/exchange-brokerage/internal/worker"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testJWTSecret   = "test-secret-0123456789-test-secret"
	testJWTIssuer   = "exchange-brokerage-test"
	testJWTAudience = "exchange-api-test"
)

type testAPI struct {
	handler  chi.Router
	store    *memstore.Store
	admin    models.User
	customer models.User
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := memstore.New()
	admin := models.User{ID: uuid.New(), Email: "desk@example.com", FirstName: "Desk", Role: domain.RoleAdmin}
	customer := models.User{ID: uuid.New(), Email: "ada@example.com", FirstName: "Ada", LastName: "Obi", Role: domain.RoleCustomer}
	store.AddUser(admin)
	store.AddUser(customer)

	ctx, cancel := context.WithCancel(context.Background())
	dispatcher := worker.NewDispatcher().WithWorkers(1)
	stopDispatcher := dispatcher.Run(ctx)
	t.Cleanup(func() {
		stopDispatcher()
		cancel()
	})

	siteConfig := service.NewSiteConfigService(store)
	quotes := service.NewQuoteService(store)
	notifier := notification.NewOrderNotifier(dispatcher, notification.NewLogSender(zap.NewNop()), events.NopPublisher{}, siteConfig,
		notification.Options{SiteName: "Exchange", AdminEmail: admin.Email, OrderTopic: "exchange.orders"}, zap.NewNop())

	cfg := &config.Config{
		HTTPPort:           "0",
		JWTSecret:          testJWTSecret,
		JWTIssuer:          testJWTIssuer,
		JWTAudience:        testJWTAudience,
		PublicRateLimitRPS: 1000,
		AuthRateLimitRPS:   1000,
		IdempotencyTTL:     time.Hour,
	}
	router := api.NewRouter(cfg, zap.NewNop(), nil, rdb, idempotency.NewStore(rdb, store, cfg.IdempotencyTTL), api.Services{
		Orders:      service.NewOrderService(store, quotes, service.NewAccountResolver(store), notifier),
		Quotes:      quotes,
		Commissions: service.NewCommissionService(store),
		Catalog:     service.NewCatalogService(store),
		Accounts:    service.NewAccountService(store),
		SiteConfig:  siteConfig,
		Users:       service.NewUserService(store),
	})
	return &testAPI{handler: router.Routes(), store: store, admin: admin, customer: customer}
}

func generateTokenWithRole(userID, role string) string {
	return generateToken(userID, role, nil)
}

// generateToken signs a token; profile adds identity claims such as email.
func generateToken(userID, role string, profile map[string]string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"iss":     testJWTIssuer,
		"aud":     testJWTAudience,
		"sub":     userID,
		"iat":     now.Unix(),
		"nbf":     now.Add(-30 * time.Second).Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	}
	for k, v := range profile {
		claims[k] = v
	}
	tokenString, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(middleware.JWTSecret())
	return tokenString
}

func (a *testAPI) adminToken() string {
	return generateTokenWithRole(a.admin.ID.String(), domain.RoleAdmin)
}

func (a *testAPI) customerToken() string {
	return generateTokenWithRole(a.customer.ID.String(), domain.RoleCustomer)
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// seedCatalog creates PayPal and USD through the admin API and prices
// PayPal buys at 2% + 1.
func (a *testAPI) seedCatalog(t *testing.T) (paypal models.PaymentMethod, usd models.Currency) {
	t.Helper()

	w := a.do(t, http.MethodPost, "/v1/admin/payment-methods", a.adminToken(), map[string]any{"title": "PayPal"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "ok", w.Header().Get("X-Commission-Resync"))
	paypal = decode[models.PaymentMethod](t, w)

	w = a.do(t, http.MethodPost, "/v1/admin/currencies", a.adminToken(), map[string]any{"title": "USD"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	usd = decode[models.Currency](t, w)
	require.Equal(t, []string{"PayPal"}, usd.BuyCommissions.Titles())

	w = a.do(t, http.MethodPatch, "/v1/admin/currencies/"+usd.ID.String(), a.adminToken(), map[string]any{
		"buy_commissions": []map[string]string{{"title": "PayPal", "percentage": "2", "fixed": "1"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	usd = decode[models.Currency](t, w)
	return paypal, usd
}

func (a *testAPI) addAccount(t *testing.T, accountType string, assetID uuid.UUID) models.Account {
	t.Helper()
	w := a.do(t, http.MethodPost, "/v1/accounts", a.customerToken(), map[string]any{
		"account_type":   accountType,
		"asset_id":       assetID.String(),
		"account_number": "0001",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Account](t, w)
}

func TestRFC7807ProblemDetails(t *testing.T) {
	a := setupAPI(t)

	w := a.do(t, http.MethodGet, "/v1/accounts", "", nil)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "application/problem+json")

	body := decode[map[string]any](t, w)
	assert.NotEmpty(t, body["type"])
	assert.Equal(t, float64(http.StatusUnauthorized), body["status"])
	assert.NotEmpty(t, body["title"])
	assert.NotEmpty(t, body["detail"])
	assert.Equal(t, "/v1/accounts", body["instance"])
	assert.NotEmpty(t, body["trace_id"])
}

func TestComputeQuote(t *testing.T) {
	a := setupAPI(t)
	a.seedCatalog(t)

	cases := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{name: "numeric_amount", body: map[string]any{"type": "buy", "first_amount": 100, "from": "PayPal", "to": "USD"}, status: http.StatusOK},
		{name: "string_amount", body: map[string]any{"type": "buy", "first_amount": "100", "from": "PayPal", "to": "USD"}, status: http.StatusOK},
		{name: "unknown_currency", body: map[string]any{"type": "buy", "first_amount": 100, "from": "PayPal", "to": "GBP"}, status: http.StatusBadRequest},
		{name: "unknown_type", body: map[string]any{"type": "swap", "first_amount": 100, "from": "PayPal", "to": "USD"}, status: http.StatusBadRequest},
		{name: "zero_amount", body: map[string]any{"type": "buy", "first_amount": 0, "from": "PayPal", "to": "USD"}, status: http.StatusBadRequest},
		{name: "exponent_amount", body: map[string]any{"type": "buy", "first_amount": "1e2000000", "from": "PayPal", "to": "USD"}, status: http.StatusBadRequest},
		{name: "amount_too_large", body: map[string]any{"type": "buy", "first_amount": "1000000000000", "from": "PayPal", "to": "USD"}, status: http.StatusBadRequest},
		{name: "amount_too_precise", body: map[string]any{"type": "buy", "first_amount": "1.123456789", "from": "PayPal", "to": "USD"}, status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := a.do(t, http.MethodPost, "/v1/quotes", "", tc.body)
			require.Equal(t, tc.status, w.Code, w.Body.String())
			if tc.status != http.StatusOK {
				assert.Contains(t, w.Header().Get("Content-Type"), "application/problem+json")
				return
			}
			quote := decode[map[string]any](t, w)
			assert.Equal(t, "buy", quote["type"])
			assert.Equal(t, "103.00", quote["second_amount"])
			assert.Equal(t, "2% + 1 = 3.00", quote["service_charges"])
			assert.Equal(t, float64(3), quote["commission_amount"])
		})
	}
}

func TestFirstRequestMirrorsTokenProfile(t *testing.T) {
	a := setupAPI(t)
	paypal, usd := a.seedCatalog(t)

	newcomer := uuid.New()
	token := generateToken(newcomer.String(), domain.RoleCustomer, map[string]string{
		"email":      "Bola@Example.com",
		"first_name": "Bola",
		"last_name":  "Ade",
	})
	_, err := a.store.GetUser(context.Background(), newcomer)
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	for _, acct := range []map[string]any{
		{"account_type": "paymentmethod", "asset_id": paypal.ID.String()},
		{"account_type": "ecurrency", "asset_id": usd.ID.String()},
	} {
		w := a.do(t, http.MethodPost, "/v1/accounts", token, acct)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := a.do(t, http.MethodPost, "/v1/orders", token, map[string]any{"type": "buy", "first_amount": "50", "from": "PayPal", "to": "USD"}, "Idempotency-Key", "first-order")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, newcomer.String(), decode[map[string]any](t, w)["user_id"])

	mirrored, err := a.store.GetUser(context.Background(), newcomer)
	require.NoError(t, err)
	assert.Equal(t, "bola@example.com", mirrored.Email)
	assert.Equal(t, "Bola Ade", mirrored.FullName())

	w = a.do(t, http.MethodGet, "/v1/accounts", generateToken(uuid.NewString(), domain.RoleCustomer, map[string]string{"email": "bola@example.com"}), nil)
	assert.Equal(t, http.StatusConflict, w.Code, "email already belongs to another user")

	w = a.do(t, http.MethodPost, "/v1/accounts", generateTokenWithRole(uuid.NewString(), domain.RoleCustomer), map[string]any{
		"account_type": "ecurrency", "asset_id": usd.ID.String(),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "a token without a profile cannot create the mirror row")
}

func TestPlaceOrderIsIdempotent(t *testing.T) {
	a := setupAPI(t)
	paypal, usd := a.seedCatalog(t)
	source := a.addAccount(t, string(domain.AccountTypePaymentMethod), paypal.ID)
	dest := a.addAccount(t, string(domain.AccountTypeECurrency), usd.ID)

	trade := map[string]any{"type": "buy", "first_amount": "100", "from": "PayPal", "to": "USD"}

	w := a.do(t, http.MethodPost, "/v1/orders", a.customerToken(), trade)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodPost, "/v1/orders", a.customerToken(), trade, "Idempotency-Key", "order-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[map[string]any](t, w)
	assert.Equal(t, "pending", first["status"])
	assert.Equal(t, "103.00", first["second_amount"])
	sentFrom := first["sent_from"].(map[string]any)
	assert.Equal(t, "paymentMethod", sentFrom["model"])
	assert.Equal(t, source.ID.String(), sentFrom["accountId"])
	receivedIn := first["received_in"].(map[string]any)
	assert.Equal(t, "USD", receivedIn["title"])
	assert.Equal(t, dest.ID.String(), receivedIn["accountId"])

	w = a.do(t, http.MethodPost, "/v1/orders", a.customerToken(), trade, "Idempotency-Key", "order-1")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Idempotent-Replay"))
	assert.Equal(t, first["id"], decode[map[string]any](t, w)["id"])

	trade["first_amount"] = "200"
	w = a.do(t, http.MethodPost, "/v1/orders", a.customerToken(), trade, "Idempotency-Key", "order-1")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(t, http.MethodGet, "/v1/orders", a.customerToken(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["total"])
}

func TestPlaceOrderWithoutAccountNamesAsset(t *testing.T) {
	a := setupAPI(t)
	paypal, _ := a.seedCatalog(t)
	a.addAccount(t, string(domain.AccountTypePaymentMethod), paypal.ID)

	w := a.do(t, http.MethodPost, "/v1/orders", a.customerToken(),
		map[string]any{"type": "buy", "first_amount": "100", "from": "PayPal", "to": "USD"},
		"Idempotency-Key", "order-missing-account")

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]any](t, w)["detail"], "USD")
}

func TestSetOrderStatus(t *testing.T) {
	a := setupAPI(t)
	paypal, usd := a.seedCatalog(t)
	a.addAccount(t, string(domain.AccountTypePaymentMethod), paypal.ID)
	a.addAccount(t, string(domain.AccountTypeECurrency), usd.ID)

	w := a.do(t, http.MethodPost, "/v1/orders", a.customerToken(),
		map[string]any{"type": "buy", "first_amount": "50", "from": "PayPal", "to": "USD"},
		"Idempotency-Key", "order-status")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	orderID := decode[map[string]any](t, w)["id"].(string)
	statusPath := "/v1/admin/orders/" + orderID + "/status"

	w = a.do(t, http.MethodPatch, statusPath, a.customerToken(), map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	cases := []struct {
		name   string
		status string
		want   int
	}{
		{name: "invalid_status", status: "shipped", want: http.StatusBadRequest},
		{name: "complete", status: "completed", want: http.StatusOK},
		{name: "same_state", status: "completed", want: http.StatusOK},
		{name: "leave_terminal", status: "pending", want: http.StatusConflict},
	}
	for _, tc := range cases {
		w := a.do(t, http.MethodPatch, statusPath, a.adminToken(), map[string]string{"status": tc.status})
		require.Equal(t, tc.want, w.Code, "%s: %s", tc.name, w.Body.String())
	}

	w = a.do(t, http.MethodPatch, "/v1/admin/orders/"+uuid.NewString()+"/status", a.adminToken(), map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, http.MethodGet, "/v1/orders/"+orderID, a.customerToken(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", decode[map[string]any](t, w)["status"])

	w = a.do(t, http.MethodGet, "/v1/admin/orders/"+orderID+"/owner", a.adminToken(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, a.customer.Email, decode[models.User](t, w).Email)

	audit := a.store.Audit()
	require.Len(t, audit, 1)
	assert.Equal(t, "pending", audit[0].PrevState)
	assert.Equal(t, "completed", audit[0].NextState)
}

func TestAdminDeskOrders(t *testing.T) {
	a := setupAPI(t)
	paypal, usd := a.seedCatalog(t)
	source := a.addAccount(t, string(domain.AccountTypePaymentMethod), paypal.ID)
	a.addAccount(t, string(domain.AccountTypeECurrency), usd.ID)

	trade := map[string]any{"user_id": a.customer.ID.String(), "type": "buy", "first_amount": "100", "from": "PayPal", "to": "USD"}
	w := a.do(t, http.MethodPost, "/v1/admin/orders", a.customerToken(), trade, "Idempotency-Key", "desk-1")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, http.MethodPost, "/v1/admin/orders", a.adminToken(), trade, "Idempotency-Key", "desk-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	assert.Equal(t, a.customer.ID.String(), created["user_id"])
	assert.Equal(t, source.ID.String(), created["sent_from"].(map[string]any)["accountId"])
	orderPath := "/v1/admin/orders/" + created["id"].(string)

	unknown := map[string]any{"user_id": uuid.NewString(), "type": "buy", "first_amount": "100", "from": "PayPal", "to": "USD"}
	w = a.do(t, http.MethodPost, "/v1/admin/orders", a.adminToken(), unknown, "Idempotency-Key", "desk-2")
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w = a.do(t, http.MethodPatch, orderPath, a.adminToken(), map[string]any{"second_amount": 102.5, "service_charges": "2% + 0.5 = 2.50"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	amended := decode[map[string]any](t, w)
	assert.Equal(t, "102.50", amended["second_amount"])
	assert.Equal(t, "100", amended["first_amount"])
	assert.Equal(t, created["sent_from"], amended["sent_from"])
	assert.Equal(t, created["received_in"], amended["received_in"])

	w = a.do(t, http.MethodPatch, orderPath, a.adminToken(), map[string]any{"sent_from": map[string]string{"title": "Wise"}})
	assert.Equal(t, http.StatusBadRequest, w.Code, "snapshots are not amendable")

	w = a.do(t, http.MethodPatch, orderPath, a.adminToken(), map[string]any{"second_amount": "1.005"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodPatch, orderPath+"/status", a.adminToken(), map[string]string{"status": "cancelled"})
	require.Equal(t, http.StatusOK, w.Code)
	w = a.do(t, http.MethodPatch, orderPath, a.adminToken(), map[string]any{"first_amount": "90"})
	assert.Equal(t, http.StatusConflict, w.Code)

	actions := make([]string, 0, 2)
	for _, e := range a.store.Audit() {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{"order.amended", "order.status_changed"}, actions)
}

func TestCatalogMutationsKeepSchedulesAligned(t *testing.T) {
	a := setupAPI(t)
	paypal, usd := a.seedCatalog(t)

	w := a.do(t, http.MethodPost, "/v1/admin/currencies", a.adminToken(), map[string]any{"title": "EUR"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "ok", w.Header().Get("X-Commission-Resync"))

	w = a.do(t, http.MethodPatch, "/v1/admin/payment-methods/"+paypal.ID.String(), a.adminToken(), map[string]any{"title": "Wise"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ok", w.Header().Get("X-Commission-Resync"))

	w = a.do(t, http.MethodPatch, "/v1/admin/payment-methods/"+paypal.ID.String(), a.adminToken(), map[string]any{"is_banking_enabled": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ok", w.Header().Get("X-Commission-Resync"), "flag-only updates resync too")

	w = a.do(t, http.MethodGet, "/v1/currencies/"+usd.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.Currency](t, w)
	assert.Equal(t, []string{"Wise"}, got.BuyCommissions.Titles())
	assert.Equal(t, []string{"Wise"}, got.SellCommissions.Titles())
	assert.Equal(t, []string{"EUR"}, got.ExchangeCommissions.Titles())

	w = a.do(t, http.MethodPost, "/v1/admin/currencies", a.adminToken(), map[string]any{"title": "USD"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "https://errors.exchange-brokerage.dev/resource/already-exists", decode[map[string]any](t, w)["type"])

	w = a.do(t, http.MethodPost, "/v1/admin/commissions/resync", a.adminToken(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])

	w = a.do(t, http.MethodPost, "/v1/admin/commissions/resync", a.customerToken(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSiteConfigHidesCredentials(t *testing.T) {
	a := setupAPI(t)

	w := a.do(t, http.MethodGet, "/v1/config", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, http.MethodPut, "/v1/admin/config", a.adminToken(), map[string]string{
		"email_address":            "desk@example.com",
		"email_password":           "secret",
		"buy_order_confirmed_text": "Thanks for your buy order",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, "/v1/config", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	public := decode[map[string]any](t, w)
	assert.NotContains(t, public, "email_password")
	assert.NotContains(t, public, "email_address")
	assert.Equal(t, "Thanks for your buy order", public["buy_order_confirmed_text"])

	w = a.do(t, http.MethodGet, "/v1/admin/config", a.adminToken(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "secret", decode[map[string]any](t, w)["email_password"])
}

func TestOperationalEndpoints(t *testing.T) {
	a := setupAPI(t)

	cases := []struct {
		path     string
		contains string
	}{
		{path: "/health/live", contains: "ok"},
		{path: "/health/ready", contains: ""},
		{path: "/openapi.yaml", contains: "openapi:"},
		{path: "/metrics", contains: ""},
	}
	for _, tc := range cases {
		w := a.do(t, http.MethodGet, tc.path, "", nil)
		require.Equal(t, http.StatusOK, w.Code, tc.path)
		assert.Contains(t, w.Body.String(), tc.contains, tc.path)
	}

	w := a.do(t, http.MethodGet, "/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
