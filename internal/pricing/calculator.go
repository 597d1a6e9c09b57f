// Package pricing holds the pure monetary arithmetic for quotes. Every
// function is deterministic and rounding-stable: identical inputs always
// produce byte-identical decimals, and rounding happens exactly once, at the
// line level. Aggregates sum the already-rounded line totals (sum-of-rounded
// is the canonical rule) so repeated recomputation can never drift by cents.
package pricing

import "github.com/shopspring/decimal"

var (
	zero    = decimal.Zero
	hundred = decimal.NewFromInt(100)
)

// Line is the input to the per-line computation.
type Line struct {
	Quantity        int
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
}

// Totals aggregates a set of lines with order-level adjustments.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Freight  decimal.Decimal
	Total    decimal.Decimal
}

// LineTotal computes quantity * unitPrice * (1 - discount/100), rounded
// half-up to 2 decimals exactly once. Negative inputs are treated as zero
// rather than erroring.
func LineTotal(quantity int, unitPrice, discountPercent decimal.Decimal) decimal.Decimal {
	if quantity < 0 {
		quantity = 0
	}
	if unitPrice.IsNegative() {
		unitPrice = zero
	}
	if discountPercent.IsNegative() {
		discountPercent = zero
	}

	gross := decimal.NewFromInt(int64(quantity)).Mul(unitPrice)
	factor := decimal.NewFromInt(1).Sub(discountPercent.Div(hundred))
	return gross.Mul(factor).Round(2)
}

// QuoteTotals sums LineTotal over all lines, then applies the order-level
// discount and freight once. Negative order adjustments are treated as zero.
func QuoteTotals(lines []Line, orderDiscount, freight decimal.Decimal) Totals {
	if orderDiscount.IsNegative() {
		orderDiscount = zero
	}
	if freight.IsNegative() {
		freight = zero
	}

	subtotal := zero
	for _, line := range lines {
		subtotal = subtotal.Add(LineTotal(line.Quantity, line.UnitPrice, line.DiscountPercent))
	}

	return Totals{
		Subtotal: subtotal,
		Discount: orderDiscount.Round(2),
		Freight:  freight.Round(2),
		Total:    subtotal.Sub(orderDiscount).Add(freight).Round(2),
	}
}

// CIFTotal converts the product subtotal into the export currency and adds
// international freight already denominated in that currency:
// subtotal / exchangeRate + intlFreight. This is a display/export aggregate,
// never the quote's stored total. A non-positive rate yields zero; callers
// are expected to validate the rate before persisting anything.
func CIFTotal(subtotal, exchangeRate, intlFreight decimal.Decimal) decimal.Decimal {
	if !exchangeRate.IsPositive() {
		return zero
	}
	if subtotal.IsNegative() {
		subtotal = zero
	}
	if intlFreight.IsNegative() {
		intlFreight = zero
	}
	converted := subtotal.DivRound(exchangeRate, 2)
	return converted.Add(intlFreight).Round(2)
}
