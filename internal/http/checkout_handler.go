package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Itskartike/globaleats/domain"
	"github.com/Itskartike/globaleats/internal/checkout"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutService is the slice of the checkout service the HTTP layer uses.
type CheckoutService interface {
	Checkout(ctx context.Context, req checkout.Request) (*checkout.Result, error)
	GetBatch(ctx context.Context, userID string, batchID uuid.UUID) ([]*domain.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
	Transition(ctx context.Context, orderID uuid.UUID, vendorID string, target domain.OrderStatus) (*domain.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, actor string, target domain.OrderStatus) (*domain.Order, error)
}

type CheckoutHandler struct {
	service CheckoutService
	timeout time.Duration
}

func NewCheckoutHandler(service CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		timeout: timeout,
	}
}

type CoordinateDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type CartLineDTO struct {
	MenuItemID          string `json:"menu_item_id"`
	Quantity            int    `json:"quantity"`
	UnitPrice           string `json:"unit_price"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
}

type BrandGroupDTO struct {
	BrandID        string        `json:"brand_id"`
	PinnedOutletID string        `json:"pinned_outlet_id,omitempty"`
	Lines          []CartLineDTO `json:"lines"`
}

type CheckoutRequestDTO struct {
	AddressID           string          `json:"address_id"`
	DeliveryCoordinate  *CoordinateDTO  `json:"delivery_coordinate,omitempty"`
	PaymentMethod       string          `json:"payment_method"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
	Groups              []BrandGroupDTO `json:"groups"`
}

type OrderLineDTO struct {
	MenuItemID          string `json:"menu_item_id"`
	Quantity            int    `json:"quantity"`
	UnitPrice           string `json:"unit_price"`
	LineTotal           string `json:"line_total"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
}

type OrderResponseDTO struct {
	ID                  string         `json:"id"`
	OrderNumber         string         `json:"order_number"`
	CheckoutBatchID     string         `json:"checkout_batch_id"`
	OutletID            string         `json:"outlet_id"`
	BrandID             string         `json:"brand_id"`
	AddressID           string         `json:"address_id"`
	Status              string         `json:"status"`
	PaymentMethod       string         `json:"payment_method"`
	Subtotal            string         `json:"subtotal"`
	DeliveryFee         string         `json:"delivery_fee"`
	TaxAmount           string         `json:"tax_amount"`
	TotalAmount         string         `json:"total_amount"`
	SpecialInstructions string         `json:"special_instructions,omitempty"`
	Lines               []OrderLineDTO `json:"lines"`
	CreatedAt           string         `json:"created_at"`
}

type CheckoutResponseDTO struct {
	CheckoutBatchID string             `json:"checkout_batch_id"`
	Orders          []OrderResponseDTO `json:"orders"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var dto CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	req, err := buildRequest(userID, dto)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := h.service.Checkout(ctx, req)
	if err != nil {
		slog.WarnContext(ctx, "checkout failed",
			"user_id", userID,
			"request_id", getRequestID(r.Context()),
			"error", err)
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		CheckoutBatchID: result.CheckoutBatchID.String(),
		Orders:          convertOrders(result.Orders),
	})
}

// GET /api/v1/checkout/{batch_id}
func (h *CheckoutHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	batchID, err := uuid.Parse(chi.URLParam(r, "batch_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_batch_id", "batch_id must be a UUID")
		return
	}

	orders, err := h.service.GetBatch(ctx, userID, batchID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutResponseDTO{
		CheckoutBatchID: batchID.String(),
		Orders:          convertOrders(orders),
	})
}

func buildRequest(userID string, dto CheckoutRequestDTO) (checkout.Request, error) {
	req := checkout.Request{
		UserID:              userID,
		AddressID:           dto.AddressID,
		PaymentMethod:       domain.PaymentMethod(dto.PaymentMethod),
		SpecialInstructions: dto.SpecialInstructions,
	}
	if dto.DeliveryCoordinate != nil {
		req.DeliveryCoordinate = &domain.Coordinate{
			Latitude:  dto.DeliveryCoordinate.Latitude,
			Longitude: dto.DeliveryCoordinate.Longitude,
		}
	}

	groups := make([]domain.BrandGroup, len(dto.Groups))
	for i, g := range dto.Groups {
		lines := make([]domain.CartLine, len(g.Lines))
		for j, l := range g.Lines {
			price, err := decimal.NewFromString(l.UnitPrice)
			if err != nil {
				return checkout.Request{}, fmt.Errorf("brand %s line %d: unit_price is not a valid amount", g.BrandID, j)
			}
			lines[j] = domain.CartLine{
				MenuItemID:          l.MenuItemID,
				Quantity:            l.Quantity,
				UnitPrice:           price,
				SpecialInstructions: l.SpecialInstructions,
			}
		}
		groups[i] = domain.BrandGroup{
			BrandID:        g.BrandID,
			PinnedOutletID: g.PinnedOutletID,
			Lines:          lines,
		}
	}
	req.Snapshot = domain.CartSnapshot{Groups: groups, CapturedAt: time.Now().UTC()}

	if err := req.Snapshot.Validate(); err != nil {
		return checkout.Request{}, err
	}
	return req, nil
}

func convertOrders(orders []*domain.Order) []OrderResponseDTO {
	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, convertOrder(o))
	}
	return dtos
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	lines := make([]OrderLineDTO, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, OrderLineDTO{
			MenuItemID:          l.MenuItemID,
			Quantity:            l.Quantity,
			UnitPrice:           l.UnitPrice.StringFixed(2),
			LineTotal:           l.LineTotal.StringFixed(2),
			SpecialInstructions: l.SpecialInstructions,
		})
	}

	return OrderResponseDTO{
		ID:                  o.ID.String(),
		OrderNumber:         o.OrderNumber,
		CheckoutBatchID:     o.CheckoutBatchID.String(),
		OutletID:            o.OutletID,
		BrandID:             o.BrandID,
		AddressID:           o.AddressID,
		Status:              o.Status.String(),
		PaymentMethod:       string(o.PaymentMethod),
		Subtotal:            o.Subtotal.StringFixed(2),
		DeliveryFee:         o.DeliveryFee.StringFixed(2),
		TaxAmount:           o.TaxAmount.StringFixed(2),
		TotalAmount:         o.TotalAmount.StringFixed(2),
		SpecialInstructions: o.SpecialInstructions,
		Lines:               lines,
		CreatedAt:           o.CreatedAt.UTC().Format(time.RFC3339),
	}
}
