package billing

import "github.com/shopspring/decimal"

// Discount types accepted on quotes and invoices.
const (
	DiscountNone       = "none"
	DiscountFixed      = "fixed"
	DiscountPercentage = "percentage"
)

func ValidDiscountType(s string) bool {
	switch s {
	case DiscountNone, DiscountFixed, DiscountPercentage:
		return true
	}
	return false
}

var hundred = decimal.NewFromInt(100)

// Line is one (price snapshot, quantity) pair of a document.
type Line struct {
	Price decimal.Decimal
	Qty   int
}

// Totals is the result of one deterministic computation pass.
// Order is fixed: subtotal, then discount, then tax on the discounted amount.
type Totals struct {
	SubTotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// Compute derives document totals from its line items and discount/tax
// configuration. Every money step is rounded half-up to 2 decimal places to
// match the decimal(10,2) storage; the total is clamped at zero. Inputs are
// assumed non-negative (enforced at the request boundary).
func Compute(lines []Line, discountType string, discountValue, taxRate decimal.Decimal) Totals {
	sub := decimal.Zero
	for _, l := range lines {
		sub = sub.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Qty))).Round(2))
	}

	discount := decimal.Zero
	switch discountType {
	case DiscountPercentage:
		discount = sub.Mul(discountValue).Div(hundred).Round(2)
	case DiscountFixed:
		discount = discountValue.Round(2)
	}

	discounted := sub.Sub(discount)
	if discounted.IsNegative() {
		discounted = decimal.Zero
	}

	tax := decimal.Zero
	if taxRate.IsPositive() {
		tax = discounted.Mul(taxRate).Div(hundred).Round(2)
	}

	return Totals{
		SubTotal:       sub,
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          discounted.Add(tax),
	}
}
