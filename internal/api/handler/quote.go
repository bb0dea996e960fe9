package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/service"
)

// QuoteHandler prices trades without placing them.
type QuoteHandler struct {
	quotes *service.QuoteService
}

func NewQuoteHandler(quotes *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

// TradeRequest is the shared body of quote and order requests.
type TradeRequest struct {
	Type        string     `json:"type"`
	FirstAmount amountText `json:"first_amount"`
	From        string     `json:"from"`
	To          string     `json:"to"`
}

// amountText accepts a JSON number or a numeric string and keeps its text so
// no precision is lost to float64.
type amountText string

func (a *amountText) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = amountText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = amountText(n.String())
	return nil
}

// ComputeQuote handles POST /v1/quotes.
func (h *QuoteHandler) ComputeQuote(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	trade, err := domain.ParseTradeRequest(req.Type, req.From, req.To)
	if err != nil {
		writeServiceError(w, r, err, "compute quote")
		return
	}
	amount, err := domain.ParseAmount(string(req.FirstAmount))
	if err != nil {
		writeServiceError(w, r, err, "compute quote")
		return
	}

	quote, err := h.quotes.ComputeQuote(r.Context(), trade, amount)
	if err != nil {
		writeServiceError(w, r, err, "compute quote")
		return
	}
	RespondJSON(w, http.StatusOK, toQuoteResponse(quote))
}
