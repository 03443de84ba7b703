package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Itskartike/globaleats/domain"
	"github.com/Itskartike/globaleats/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type OrdersHandler struct {
	service CheckoutService
	timeout time.Duration
}

func NewOrdersHandler(service CheckoutService, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		service: service,
		timeout: timeout,
	}
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.service.ListOrders(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrders(orders))
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	order, err := h.service.GetOrder(ctx, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// Another customer's order is indistinguishable from a missing one.
	if order.UserID != userID {
		handleServiceError(w, repository.ErrOrderNotFound)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

type UpdateStatusRequestDTO struct {
	TargetStatus string `json:"target_status"`
}

// PATCH /api/v1/orders/{order_id}/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	vendorID := getVendorIDFromContext(r.Context())
	if vendorID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing vendor authentication")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	var dto UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if dto.TargetStatus == "" {
		respondError(w, http.StatusBadRequest, "missing_target_status", "target_status is required")
		return
	}

	order, err := h.service.Transition(ctx, orderID, vendorID, domain.OrderStatus(dto.TargetStatus))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

// POST /api/v1/orders/{order_id}/cancel
func (h *OrdersHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	order, err := h.service.GetOrder(ctx, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if order.UserID != userID {
		handleServiceError(w, repository.ErrOrderNotFound)
		return
	}

	cancelled, err := h.service.Cancel(ctx, orderID, "customer:"+userID, domain.OrderStatusCancelled)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(cancelled))
}
