package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReadyForPickup OrderStatus = "ready_for_pickup"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusRefunded       OrderStatus = "refunded"
)

// forward is the strict single-step fulfilment chain. Skipping a step is
// never legal.
var forward = map[OrderStatus]OrderStatus{
	OrderStatusPending:        OrderStatusConfirmed,
	OrderStatusConfirmed:      OrderStatusPreparing,
	OrderStatusPreparing:      OrderStatusReadyForPickup,
	OrderStatusReadyForPickup: OrderStatusOutForDelivery,
	OrderStatusOutForDelivery: OrderStatusDelivered,
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReadyForPickup, OrderStatusOutForDelivery,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled || s == OrderStatusRefunded
}

// CanTransitionTo reports whether target is the immediate successor of s in
// the forward chain.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	return forward[s] == target
}

// CanCancelTo reports whether the order may leave the forward chain for one
// of the absorbing states. Cancellation and refund are reachable from any
// state before delivery.
func (s OrderStatus) CanCancelTo(target OrderStatus) bool {
	if target != OrderStatusCancelled && target != OrderStatusRefunded {
		return false
	}
	return !s.IsTerminal()
}

func (s OrderStatus) String() string {
	return string(s)
}

// OrderLine is one persisted menu-item line of an order.
type OrderLine struct {
	ID                  int64           `json:"id"`
	MenuItemID          string          `json:"menu_item_id"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	LineTotal           decimal.Decimal `json:"line_total"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
}

// Order is a single-outlet, single-brand billable unit. It is created once,
// atomically, as part of a checkout batch, mutated only through the status
// state machine, and never physically deleted.
type Order struct {
	ID                  uuid.UUID       `json:"id"`
	OrderNumber         string          `json:"order_number"`
	CheckoutBatchID     uuid.UUID       `json:"checkout_batch_id"`
	UserID              string          `json:"user_id"`
	OutletID            string          `json:"outlet_id"`
	BrandID             string          `json:"brand_id"`
	AddressID           string          `json:"address_id"`
	Status              OrderStatus     `json:"status"`
	PaymentMethod       PaymentMethod   `json:"payment_method"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	DeliveryFee         decimal.Decimal `json:"delivery_fee"`
	TaxAmount           decimal.Decimal `json:"tax_amount"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
	Lines               []OrderLine     `json:"lines"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}
