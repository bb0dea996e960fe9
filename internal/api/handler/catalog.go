package handler

import (
	"context"
	"net/http"

	"github.com/ayo6706/exchange-brokerage/internal/api/middleware"
	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/service"
	"go.uber.org/zap"
)

// Resyncer restores the commission schedules after a catalog change.
type Resyncer interface {
	Resync(ctx context.Context) error
}

// CatalogHandler serves currencies, payment methods and the commission resync.
// Every successful mutation is followed by a synchronous resync; a partial
// resync keeps the mutation, logs, and flags the response with the
// X-Commission-Resync header.
type CatalogHandler struct {
	catalog     *service.CatalogService
	commissions Resyncer
}

func NewCatalogHandler(catalog *service.CatalogService, commissions Resyncer) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, commissions: commissions}
}

func (h *CatalogHandler) resyncAfter(w http.ResponseWriter, r *http.Request, change string) {
	if err := h.commissions.Resync(r.Context()); err != nil {
		zap.L().Error("commission resync after catalog change failed",
			zap.String("change", change),
			zap.String("trace_id", middleware.TraceIDFromContext(r.Context())),
			zap.Error(err),
		)
		w.Header().Set("X-Commission-Resync", "incomplete")
		return
	}
	w.Header().Set("X-Commission-Resync", "ok")
}

// ListCurrencies handles GET /v1/currencies.
func (h *CatalogHandler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	params, ok := listParamsOrBadRequest(w, r)
	if !ok {
		return
	}
	page, err := h.catalog.ListCurrencies(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, err, "list currencies")
		return
	}
	RespondJSON(w, http.StatusOK, page)
}

// GetCurrency handles GET /v1/currencies/{id}.
func (h *CatalogHandler) GetCurrency(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "currency")
	if !ok {
		return
	}
	c, err := h.catalog.GetCurrency(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "get currency")
		return
	}
	RespondJSON(w, http.StatusOK, c)
}

// CreateCurrency handles POST /v1/admin/currencies.
func (h *CatalogHandler) CreateCurrency(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.catalog.CreateCurrency(r.Context(), req.Title)
	if err != nil {
		writeServiceError(w, r, err, "create currency")
		return
	}
	h.resyncAfter(w, r, "currency created")
	RespondJSON(w, http.StatusCreated, c)
}

type updateCurrencyRequest struct {
	Title               *string             `json:"title"`
	BuyCommissions      *domain.Commissions `json:"buy_commissions"`
	SellCommissions     *domain.Commissions `json:"sell_commissions"`
	ExchangeCommissions *domain.Commissions `json:"exchange_commissions"`
}

// UpdateCurrency handles PATCH /v1/admin/currencies/{id}.
func (h *CatalogHandler) UpdateCurrency(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "currency")
	if !ok {
		return
	}
	var req updateCurrencyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.catalog.UpdateCurrency(r.Context(), id, service.CurrencyUpdate{
		Title:               req.Title,
		BuyCommissions:      req.BuyCommissions,
		SellCommissions:     req.SellCommissions,
		ExchangeCommissions: req.ExchangeCommissions,
	})
	if err != nil {
		writeServiceError(w, r, err, "update currency")
		return
	}
	h.resyncAfter(w, r, "currency updated")
	if fresh, err := h.catalog.GetCurrency(r.Context(), id); err == nil {
		c = fresh
	}
	RespondJSON(w, http.StatusOK, c)
}

// ArchiveCurrency handles DELETE /v1/admin/currencies/{id}.
func (h *CatalogHandler) ArchiveCurrency(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "currency")
	if !ok {
		return
	}
	if err := h.catalog.ArchiveCurrency(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "archive currency")
		return
	}
	h.resyncAfter(w, r, "currency archived")
	w.WriteHeader(http.StatusNoContent)
}

// ListPaymentMethods handles GET /v1/payment-methods.
func (h *CatalogHandler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	params, ok := listParamsOrBadRequest(w, r)
	if !ok {
		return
	}
	page, err := h.catalog.ListPaymentMethods(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, err, "list payment methods")
		return
	}
	RespondJSON(w, http.StatusOK, page)
}

type createPaymentMethodRequest struct {
	Title            string `json:"title"`
	IsBankingEnabled bool   `json:"is_banking_enabled"`
}

// CreatePaymentMethod handles POST /v1/admin/payment-methods.
func (h *CatalogHandler) CreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req createPaymentMethodRequest
	if !decodeBody(w, r, &req) {
		return
	}
	pm, err := h.catalog.CreatePaymentMethod(r.Context(), req.Title, req.IsBankingEnabled)
	if err != nil {
		writeServiceError(w, r, err, "create payment method")
		return
	}
	h.resyncAfter(w, r, "payment method created")
	RespondJSON(w, http.StatusCreated, pm)
}

type updatePaymentMethodRequest struct {
	Title            *string `json:"title"`
	IsBankingEnabled *bool   `json:"is_banking_enabled"`
}

// UpdatePaymentMethod handles PATCH /v1/admin/payment-methods/{id}.
func (h *CatalogHandler) UpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "payment-method")
	if !ok {
		return
	}
	var req updatePaymentMethodRequest
	if !decodeBody(w, r, &req) {
		return
	}
	pm, err := h.catalog.UpdatePaymentMethod(r.Context(), id, service.PaymentMethodUpdate{
		Title:            req.Title,
		IsBankingEnabled: req.IsBankingEnabled,
	})
	if err != nil {
		writeServiceError(w, r, err, "update payment method")
		return
	}
	h.resyncAfter(w, r, "payment method updated")
	RespondJSON(w, http.StatusOK, pm)
}

// ArchivePaymentMethod handles DELETE /v1/admin/payment-methods/{id}.
func (h *CatalogHandler) ArchivePaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "payment-method")
	if !ok {
		return
	}
	if err := h.catalog.ArchivePaymentMethod(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "archive payment method")
		return
	}
	h.resyncAfter(w, r, "payment method archived")
	w.WriteHeader(http.StatusNoContent)
}

// ResyncCommissions handles POST /v1/admin/commissions/resync. Unlike the
// implicit resync after a mutation, a partial failure here is a 500.
func (h *CatalogHandler) ResyncCommissions(w http.ResponseWriter, r *http.Request) {
	if err := h.commissions.Resync(r.Context()); err != nil {
		writeServiceError(w, r, err, "resync commissions")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
