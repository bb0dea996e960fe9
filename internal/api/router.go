package api

import (
	"net/http"

	"github.com/ayo6706/exchange-brokerage/internal/api/handler"
	"github.com/ayo6706/exchange-brokerage/internal/api/middleware"
	"github.com/ayo6706/exchange-brokerage/internal/api/spec"
	"github.com/ayo6706/exchange-brokerage/internal/config"
	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/idempotency"
	"github.com/ayo6706/exchange-brokerage/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// Services are the application services the HTTP layer calls into.
type Services struct {
	Orders      *service.OrderService
	Quotes      *service.QuoteService
	Commissions *service.CommissionService
	Catalog     *service.CatalogService
	Accounts    *service.AccountService
	SiteConfig  *service.SiteConfigService
	Users       *service.UserService
}

type Router struct {
	cfg    *config.Config
	logger *zap.Logger
	db     handler.Pinger
	redis  redis.Cmdable
	idem   *idempotency.Store
	svc    Services
}

func NewRouter(cfg *config.Config, logger *zap.Logger, db handler.Pinger, redis redis.Cmdable, idem *idempotency.Store, svc Services) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	middleware.SetJWTSecret(cfg.JWTSecret)
	middleware.SetJWTValidation(cfg.JWTIssuer, cfg.JWTAudience)
	return &Router{cfg: cfg, logger: logger, db: db, redis: redis, idem: idem, svc: svc}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)

	healthHandler := handler.NewHealthHandler(api.db, api.redis)
	quoteHandler := handler.NewQuoteHandler(api.svc.Quotes)
	orderHandler := handler.NewOrderHandler(api.svc.Orders)
	catalogHandler := handler.NewCatalogHandler(api.svc.Catalog, api.svc.Commissions)
	accountHandler := handler.NewAccountHandler(api.svc.Accounts)
	configHandler := handler.NewConfigHandler(api.svc.SiteConfig)

	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

	// Public catalog and pricing
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))

		r.Get("/v1/currencies", catalogHandler.ListCurrencies)
		r.Get("/v1/currencies/{id}", catalogHandler.GetCurrency)
		r.Get("/v1/payment-methods", catalogHandler.ListPaymentMethods)
		r.Post("/v1/quotes", quoteHandler.ComputeQuote)
		r.Get("/v1/config", configHandler.GetPublic)
	})

	// Authenticated customers
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))
		r.Use(middleware.UserSyncMiddleware(api.svc.Users, api.logger))

		r.Get("/v1/accounts", accountHandler.ListAccounts)
		r.Post("/v1/accounts", accountHandler.CreateAccount)
		r.Patch("/v1/accounts/{id}", accountHandler.UpdateAccount)
		r.Delete("/v1/accounts/{id}", accountHandler.ArchiveAccount)

		r.Get("/v1/orders", orderHandler.ListMyOrders)
		r.Get("/v1/orders/{id}", orderHandler.GetOrder)
		r.With(middleware.IdempotencyMiddleware(api.idem, api.logger)).Post("/v1/orders", orderHandler.PlaceOrder)

		// Admin desk
		r.Route("/v1/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin))

			r.Get("/orders", orderHandler.ListOrders)
			r.With(middleware.IdempotencyMiddleware(api.idem, api.logger)).Post("/orders", orderHandler.PlaceOrderFor)
			r.Get("/orders/{id}", orderHandler.GetOrder)
			r.Patch("/orders/{id}", orderHandler.AmendOrder)
			r.Get("/orders/{id}/owner", orderHandler.GetOrderOwner)
			r.Patch("/orders/{id}/status", orderHandler.SetOrderStatus)
			r.Delete("/orders/{id}", orderHandler.ArchiveOrder)

			r.Post("/currencies", catalogHandler.CreateCurrency)
			r.Patch("/currencies/{id}", catalogHandler.UpdateCurrency)
			r.Delete("/currencies/{id}", catalogHandler.ArchiveCurrency)

			r.Post("/payment-methods", catalogHandler.CreatePaymentMethod)
			r.Patch("/payment-methods/{id}", catalogHandler.UpdatePaymentMethod)
			r.Delete("/payment-methods/{id}", catalogHandler.ArchivePaymentMethod)

			r.Post("/commissions/resync", catalogHandler.ResyncCommissions)

			r.Get("/config", configHandler.Get)
			r.Put("/config", configHandler.Upsert)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handler.RespondError(w, r, http.StatusNotFound, "route/not-found", "no route for "+r.Method+" "+r.URL.Path)
	})
	return r
}
