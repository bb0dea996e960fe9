package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayo6706/exchange-brokerage/internal/domain"
	"github.com/ayo6706/exchange-brokerage/internal/models"
	"github.com/ayo6706/exchange-brokerage/internal/service"
	"github.com/google/uuid"
)

// OrderHandler serves customer order placement and the admin order desk.
type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// PlaceOrder handles POST /v1/orders.
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	var req TradeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := h.orders.PlaceOrder(r.Context(), service.PlaceOrderRequest{
		UserID:      userID,
		Type:        req.Type,
		FirstAmount: string(req.FirstAmount),
		From:        req.From,
		To:          req.To,
	})
	if err != nil {
		writeServiceError(w, r, err, "place order")
		return
	}
	RespondJSON(w, http.StatusCreated, toOrderResponse(order))
}

// ListMyOrders handles GET /v1/orders.
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	params, ok := listParamsOrBadRequest(w, r)
	if !ok {
		return
	}
	page, err := h.orders.ListUserOrders(r.Context(), userID, params)
	if err != nil {
		writeServiceError(w, r, err, "list user orders")
		return
	}
	RespondJSON(w, http.StatusOK, toOrderPage(page))
}

// GetOrder handles GET /v1/orders/{id}. Customers only see their own orders;
// anyone else's is reported as missing.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}
	orderID, ok := pathID(w, r, "order")
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(r.Context(), orderID)
	if err == nil && !isAdmin && order.UserID != actorID {
		err = domain.ErrOrderNotFound
	}
	if err != nil {
		writeServiceError(w, r, err, "get order")
		return
	}
	RespondJSON(w, http.StatusOK, toOrderResponse(order))
}

// ListOrders handles GET /v1/admin/orders.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	params, ok := listParamsOrBadRequest(w, r)
	if !ok {
		return
	}
	filter := models.OrderFilter{ListParams: params}
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("type")); raw != "" {
		t, ok := domain.ParseOrderType(raw)
		if !ok {
			RespondError(w, r, http.StatusBadRequest, "request/invalid-query", "type must be buy, sell or exchange")
			return
		}
		filter.Type = t
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		s, ok := domain.ParseOrderStatus(raw)
		if !ok {
			writeServiceError(w, r, domain.ErrInvalidStatus, "list orders")
			return
		}
		filter.Status = s
	}
	if raw := strings.TrimSpace(q.Get("user_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(w, r, http.StatusBadRequest, "request/invalid-query", "user_id must be a UUID")
			return
		}
		filter.UserID = &id
	}

	page, err := h.orders.ListOrders(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err, "list orders")
		return
	}
	RespondJSON(w, http.StatusOK, toOrderPage(page))
}

type adminOrderRequest struct {
	UserID uuid.UUID `json:"user_id"`
	TradeRequest
}

// PlaceOrderFor handles POST /v1/admin/orders.
func (h *OrderHandler) PlaceOrderFor(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	var req adminOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	order, err := h.orders.PlaceOrderFor(r.Context(), service.PlaceOrderRequest{
		UserID:      req.UserID,
		Type:        req.Type,
		FirstAmount: string(req.FirstAmount),
		From:        req.From,
		To:          req.To,
	}, actorID)
	if err != nil {
		writeServiceError(w, r, err, "place order for customer")
		return
	}
	RespondJSON(w, http.StatusCreated, toOrderResponse(order))
}

type amendOrderRequest struct {
	FirstAmount    *amountText `json:"first_amount"`
	SecondAmount   *amountText `json:"second_amount"`
	ServiceCharges *string     `json:"service_charges"`
}

// AmendOrder handles PATCH /v1/admin/orders/{id}.
func (h *OrderHandler) AmendOrder(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "order")
	if !ok {
		return
	}
	var req amendOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	order, err := h.orders.AmendOrder(r.Context(), orderID, service.OrderAmendment{
		FirstAmount:    textPtr(req.FirstAmount),
		SecondAmount:   textPtr(req.SecondAmount),
		ServiceCharges: req.ServiceCharges,
	}, actorID)
	if err != nil {
		writeServiceError(w, r, err, "amend order")
		return
	}
	RespondJSON(w, http.StatusOK, toOrderResponse(order))
}

func textPtr(a *amountText) *string {
	if a == nil {
		return nil
	}
	s := string(*a)
	return &s
}

type setOrderStatusRequest struct {
	Status string `json:"status"`
}

// SetOrderStatus handles PATCH /v1/admin/orders/{id}/status.
func (h *OrderHandler) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "order")
	if !ok {
		return
	}
	var req setOrderStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := h.orders.SetOrderStatus(r.Context(), orderID, req.Status, actorID)
	if err != nil {
		writeServiceError(w, r, err, "set order status")
		return
	}
	RespondJSON(w, http.StatusOK, toOrderResponse(order))
}

// GetOrderOwner handles GET /v1/admin/orders/{id}/owner.
func (h *OrderHandler) GetOrderOwner(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "order")
	if !ok {
		return
	}
	owner, err := h.orders.GetOrderOwner(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			RespondError(w, r, http.StatusNotFound, "user/not-found", "order owner no longer exists")
			return
		}
		writeServiceError(w, r, err, "get order owner")
		return
	}
	RespondJSON(w, http.StatusOK, owner)
}

// ArchiveOrder handles DELETE /v1/admin/orders/{id}.
func (h *OrderHandler) ArchiveOrder(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actorOrUnauthorized(w, r)
	if !ok {
		return
	}
	orderID, ok := pathID(w, r, "order")
	if !ok {
		return
	}
	if err := h.orders.ArchiveOrder(r.Context(), orderID, actorID); err != nil {
		writeServiceError(w, r, err, "archive order")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
