// Package pricing turns a resolved brand group into amounts: subtotal from
// captured cart prices, the outlet's delivery fee, tax, and the order total.
package pricing

import (
	"fmt"
	"log/slog"

	"github.com/Itskartike/globaleats/domain"
	"github.com/shopspring/decimal"
)

// BelowMinimumError reports a group whose subtotal does not meet the
// outlet's minimum order amount.
type BelowMinimumError struct {
	OutletID string
	Subtotal decimal.Decimal
	Minimum  decimal.Decimal
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("subtotal %s is below outlet %s minimum of %s",
		e.Subtotal.StringFixed(2), e.OutletID, e.Minimum.StringFixed(2))
}

// Calculator prices brand groups. taxRate is a fraction (0.05 = 5%). When
// enforceMinimum is false a below-minimum subtotal is logged and priced
// anyway instead of failing the group.
type Calculator struct {
	taxRate        decimal.Decimal
	enforceMinimum bool
}

func NewCalculator(taxRate decimal.Decimal, enforceMinimum bool) *Calculator {
	return &Calculator{taxRate: taxRate, enforceMinimum: enforceMinimum}
}

// Price computes the intent for one (brand, outlet) group. All amounts are
// rounded half-up to 2 decimal places. Unit prices are the ones captured at
// add-to-cart time; the live catalog price is deliberately never consulted
// here, so a mid-checkout price change cannot alter a total the customer
// already saw.
func (c *Calculator) Price(outlet domain.OutletCandidate, brandID string, lines []domain.CartLine) (domain.PricedOrderIntent, error) {
	priced := make([]domain.PricedLine, len(lines))
	subtotal := decimal.Zero
	for i, l := range lines {
		lineTotal := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
		priced[i] = domain.PricedLine{
			MenuItemID:          l.MenuItemID,
			Quantity:            l.Quantity,
			UnitPrice:           l.UnitPrice,
			LineTotal:           lineTotal,
			SpecialInstructions: l.SpecialInstructions,
		}
		subtotal = subtotal.Add(lineTotal)
	}
	subtotal = subtotal.Round(2)

	if subtotal.LessThan(outlet.MinimumOrderAmount) {
		if c.enforceMinimum {
			return domain.PricedOrderIntent{}, &BelowMinimumError{
				OutletID: outlet.OutletID,
				Subtotal: subtotal,
				Minimum:  outlet.MinimumOrderAmount,
			}
		}
		slog.Warn("subtotal below outlet minimum, pricing anyway",
			"outlet_id", outlet.OutletID,
			"subtotal", subtotal.StringFixed(2),
			"minimum", outlet.MinimumOrderAmount.StringFixed(2))
	}

	deliveryFee := outlet.BaseDeliveryFee.Round(2)
	if outlet.FreeDeliveryOver != nil && subtotal.GreaterThanOrEqual(*outlet.FreeDeliveryOver) {
		deliveryFee = decimal.Zero
	}

	taxAmount := subtotal.Mul(c.taxRate).Round(2)
	totalAmount := subtotal.Add(deliveryFee).Add(taxAmount)

	return domain.PricedOrderIntent{
		BrandID:     brandID,
		OutletID:    outlet.OutletID,
		Lines:       priced,
		Subtotal:    subtotal,
		DeliveryFee: deliveryFee,
		TaxAmount:   taxAmount,
		TotalAmount: totalAmount,
	}, nil
}
