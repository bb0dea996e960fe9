package handler

import (
	"net/http"

	"github.com/ayo6706/exchange-brokerage/internal/service"
)

// ConfigHandler exposes the site config singleton.
type ConfigHandler struct {
	configs *service.SiteConfigService
}

func NewConfigHandler(configs *service.SiteConfigService) *ConfigHandler {
	return &ConfigHandler{configs: configs}
}

// GetPublic handles GET /v1/config. Mail credentials are never included.
func (h *ConfigHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configs.GetPublic(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "get public config")
		return
	}
	RespondJSON(w, http.StatusOK, cfg)
}

// Get handles GET /v1/admin/config.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.configs.Get(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "get config")
		return
	}
	RespondJSON(w, http.StatusOK, cfg)
}

type upsertConfigRequest struct {
	EmailAddress               *string `json:"email_address"`
	EmailPassword              *string `json:"email_password"`
	BuyOrderConfirmedText      *string `json:"buy_order_confirmed_text"`
	SellOrderConfirmedText     *string `json:"sell_order_confirmed_text"`
	ExchangeOrderConfirmedText *string `json:"exchange_order_confirmed_text"`
}

// Upsert handles PUT /v1/admin/config.
func (h *ConfigHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertConfigRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cfg, err := h.configs.Upsert(r.Context(), service.SiteConfigUpdate{
		EmailAddress:               req.EmailAddress,
		EmailPassword:              req.EmailPassword,
		BuyOrderConfirmedText:      req.BuyOrderConfirmedText,
		SellOrderConfirmedText:     req.SellOrderConfirmedText,
		ExchangeOrderConfirmedText: req.ExchangeOrderConfirmedText,
	})
	if err != nil {
		writeServiceError(w, r, err, "upsert config")
		return
	}
	RespondJSON(w, http.StatusOK, cfg)
}
