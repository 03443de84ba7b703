package domain

import "github.com/shopspring/decimal"

// OutletCandidate is a physical outlet eligible to serve a brand, as read
// from the catalog at resolve time. Only active outlets with an active link
// to the requested brand are ever returned as candidates.
type OutletCandidate struct {
	OutletID               string
	BrandID                string
	Coordinate             Coordinate
	DeliveryRadiusKm       float64
	IsActive               bool
	BaseDeliveryFee        decimal.Decimal
	MinimumOrderAmount     decimal.Decimal
	FreeDeliveryOver       *decimal.Decimal // nil when the outlet has no free-delivery threshold
	PreparationTimeMinutes int
}

// ResolvedAssignment binds a brand group to the outlet that will fulfil it.
// DistanceKm is always within the chosen outlet's delivery radius.
type ResolvedAssignment struct {
	BrandID    string
	OutletID   string
	DistanceKm float64
}

// PricedLine is a cart line with its extended total, rounded to 2 decimals.
type PricedLine struct {
	MenuItemID          string
	Quantity            int
	UnitPrice           decimal.Decimal
	LineTotal           decimal.Decimal
	SpecialInstructions string
}

// PricedOrderIntent is one fully priced (brand, outlet) group, ready for the
// persistence transaction. TotalAmount = Subtotal + DeliveryFee + TaxAmount.
type PricedOrderIntent struct {
	BrandID     string
	OutletID    string
	Lines       []PricedLine
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal
}
