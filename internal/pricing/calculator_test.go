package pricing

import (
	"testing"

	"github.com/Itskartike/globaleats/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOutlet() domain.OutletCandidate {
	return domain.OutletCandidate{
		OutletID:           "outlet-1",
		BrandID:            "brand-1",
		IsActive:           true,
		BaseDeliveryFee:    decimal.NewFromInt(25),
		MinimumOrderAmount: decimal.NewFromInt(100),
	}
}

func TestPrice_StandardOrder(t *testing.T) {
	// subtotal 150, fee 25, tax 5% = 7.50, total 182.50
	calc := NewCalculator(decimal.NewFromFloat(0.05), true)
	lines := []domain.CartLine{
		{MenuItemID: "item-1", Quantity: 3, UnitPrice: decimal.NewFromInt(50)},
	}

	intent, err := calc.Price(testOutlet(), "brand-1", lines)

	require.NoError(t, err)
	assert.Equal(t, "150.00", intent.Subtotal.StringFixed(2))
	assert.Equal(t, "25.00", intent.DeliveryFee.StringFixed(2))
	assert.Equal(t, "7.50", intent.TaxAmount.StringFixed(2))
	assert.Equal(t, "182.50", intent.TotalAmount.StringFixed(2))
}

func TestPrice_TotalIsSumOfParts(t *testing.T) {
	calc := NewCalculator(decimal.NewFromFloat(0.05), true)
	lines := []domain.CartLine{
		{MenuItemID: "item-1", Quantity: 2, UnitPrice: decimal.NewFromFloat(64.99)},
		{MenuItemID: "item-2", Quantity: 1, UnitPrice: decimal.NewFromFloat(12.45)},
	}

	intent, err := calc.Price(testOutlet(), "brand-1", lines)

	require.NoError(t, err)
	sum := intent.Subtotal.Add(intent.DeliveryFee).Add(intent.TaxAmount)
	assert.True(t, intent.TotalAmount.Equal(sum),
		"total %s != subtotal+fee+tax %s", intent.TotalAmount, sum)
}

func TestPrice_RoundsTaxHalfUp(t *testing.T) {
	// subtotal 100.50 at 5% -> 5.025 -> rounds half-up to 5.03
	outlet := testOutlet()
	calc := NewCalculator(decimal.NewFromFloat(0.05), true)
	lines := []domain.CartLine{
		{MenuItemID: "item-1", Quantity: 1, UnitPrice: decimal.NewFromFloat(100.50)},
	}

	intent, err := calc.Price(outlet, "brand-1", lines)

	require.NoError(t, err)
	assert.Equal(t, "5.03", intent.TaxAmount.StringFixed(2))
}

func TestPrice_BelowMinimumFails(t *testing.T) {
	calc := NewCalculator(decimal.NewFromFloat(0.05), true)
	lines := []domain.CartLine{
		{MenuItemID: "item-1", Quantity: 1, UnitPrice: decimal.NewFromInt(40)},
	}

	_, err := calc.Price(testOutlet(), "brand-1", lines)

	var minErr *BelowMinimumError
	require.ErrorAs(t, err, &minErr)
	assert.Equal(t, "outlet-1", minErr.OutletID)
	assert.Equal(t, "40.00", minErr.Subtotal.StringFixed(2))
	assert.Equal(t, "100.00", minErr.Minimum.StringFixed(2))
}

func TestPrice_BelowMinimumWarnPolicy(t *testing.T) {
	calc := NewCalculator(decimal.NewFromFloat(0.05), false)
	lines := []domain.CartLine{
		{MenuItemID: "item-1", Quantity: 1, UnitPrice: decimal.NewFromInt(40)},
	}

	intent, err := calc.Price(testOutlet(), "brand-1", lines)

	require.NoError(t, err)
	assert.Equal(t, "40.00", intent.Subtotal.StringFixed(2))
}

func TestPrice_ExactMinimumPasses(t *testing.T) {
	calc := NewCalculator(decimal.NewFromFloat(0.05), true)
	lines := []domain.CartLine{
		{MenuItemID: "item-1", Quantity: 2, UnitPrice: decimal.NewFromInt(50)},
	}

	_, err := calc.Price(testOutlet(), "brand-1", lines)

	require.NoError(t, err)
}

func TestPrice_FreeDeliveryThreshold(t *testing.T) {
	outlet := testOutlet()
	over := decimal.NewFromInt(120)
	outlet.FreeDeliveryOver = &over
	calc := NewCalculator(decimal.NewFromFloat(0.05), true)

	lines := []domain.CartLine{
		{MenuItemID: "item-1", Quantity: 3, UnitPrice: decimal.NewFromInt(50)},
	}
	intent, err := calc.Price(outlet, "brand-1", lines)
	require.NoError(t, err)
	assert.True(t, intent.DeliveryFee.IsZero(), "150 >= 120 should waive the fee")

	lines = []domain.CartLine{
		{MenuItemID: "item-1", Quantity: 2, UnitPrice: decimal.NewFromInt(50)},
	}
	intent, err = calc.Price(outlet, "brand-1", lines)
	require.NoError(t, err)
	assert.Equal(t, "25.00", intent.DeliveryFee.StringFixed(2), "100 < 120 keeps the fee")
}

func TestPrice_UsesCapturedUnitPrices(t *testing.T) {
	calc := NewCalculator(decimal.NewFromFloat(0.05), true)
	lines := []domain.CartLine{
		{MenuItemID: "item-1", Quantity: 4, UnitPrice: decimal.NewFromFloat(29.99)},
	}

	intent, err := calc.Price(testOutlet(), "brand-1", lines)

	require.NoError(t, err)
	require.Len(t, intent.Lines, 1)
	assert.Equal(t, "29.99", intent.Lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "119.96", intent.Lines[0].LineTotal.StringFixed(2))
	assert.Equal(t, "119.96", intent.Subtotal.StringFixed(2))
}
