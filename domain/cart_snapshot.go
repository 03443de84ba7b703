package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one menu item in a brand group. UnitPrice is the price captured
// when the item was added to the cart, never the live catalog price.
type CartLine struct {
	MenuItemID          string          `json:"menu_item_id"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
}

// BrandGroup holds the cart lines of a single brand. PinnedOutletID, when
// set, forces fulfilment from that outlet instead of the nearest-outlet
// search.
type BrandGroup struct {
	BrandID        string     `json:"brand_id"`
	PinnedOutletID string     `json:"pinned_outlet_id,omitempty"`
	Lines          []CartLine `json:"lines"`
}

// CartSnapshot is the full multi-brand cart state at checkout time. Group
// order is the order of appearance in the customer's cart and is preserved
// through decomposition and order numbering.
type CartSnapshot struct {
	Groups     []BrandGroup `json:"groups"`
	CapturedAt time.Time    `json:"captured_at"`
}

var ErrEmptyCart = errors.New("cart is empty, nothing to checkout")

// Validate checks the structural invariants of the snapshot: at least one
// group, no brand appearing twice, every group non-empty, every line with a
// positive quantity and a non-negative captured price.
func (s CartSnapshot) Validate() error {
	if len(s.Groups) == 0 {
		return ErrEmptyCart
	}

	seen := make(map[string]bool, len(s.Groups))
	for i, g := range s.Groups {
		if g.BrandID == "" {
			return fmt.Errorf("group %d: brand_id is required", i)
		}
		if seen[g.BrandID] {
			return fmt.Errorf("brand %s appears in more than one group", g.BrandID)
		}
		seen[g.BrandID] = true

		if len(g.Lines) == 0 {
			return fmt.Errorf("brand %s: group has no lines", g.BrandID)
		}
		for j, l := range g.Lines {
			if l.MenuItemID == "" {
				return fmt.Errorf("brand %s line %d: menu_item_id is required", g.BrandID, j)
			}
			if l.Quantity < 1 {
				return fmt.Errorf("brand %s line %d: quantity must be at least 1, got %d", g.BrandID, j, l.Quantity)
			}
			if l.UnitPrice.IsNegative() {
				return fmt.Errorf("brand %s line %d: unit price must not be negative", g.BrandID, j)
			}
		}
	}
	return nil
}
