package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func line(price string, qty int) Line {
	return Line{Price: decimal.RequireFromString(price), Qty: qty}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name          string
		lines         []Line
		discountType  string
		discountValue string
		taxRate       string
		wantSub       string
		wantDiscount  string
		wantTax       string
		wantTotal     string
	}{
		{
			name:          "no lines",
			lines:         nil,
			discountType:  DiscountNone,
			discountValue: "0",
			taxRate:       "0",
			wantSub:       "0",
			wantDiscount:  "0",
			wantTax:       "0",
			wantTotal:     "0",
		},
		{
			name:          "ten percent discount",
			lines:         []Line{line("100.00", 2), line("50.00", 1)},
			discountType:  DiscountPercentage,
			discountValue: "10",
			taxRate:       "0",
			wantSub:       "250.00",
			wantDiscount:  "25.00",
			wantTax:       "0",
			wantTotal:     "225.00",
		},
		{
			name:          "fixed discount",
			lines:         []Line{line("80.00", 1)},
			discountType:  DiscountFixed,
			discountValue: "30",
			taxRate:       "0",
			wantSub:       "80.00",
			wantDiscount:  "30.00",
			wantTax:       "0",
			wantTotal:     "50.00",
		},
		{
			name:          "zero percentage leaves total equal to subtotal",
			lines:         []Line{line("19.99", 3)},
			discountType:  DiscountPercentage,
			discountValue: "0",
			taxRate:       "0",
			wantSub:       "59.97",
			wantDiscount:  "0",
			wantTax:       "0",
			wantTotal:     "59.97",
		},
		{
			name:          "zero fixed leaves total equal to subtotal",
			lines:         []Line{line("19.99", 3)},
			discountType:  DiscountFixed,
			discountValue: "0",
			taxRate:       "0",
			wantSub:       "59.97",
			wantDiscount:  "0",
			wantTax:       "0",
			wantTotal:     "59.97",
		},
		{
			name:          "oversized fixed discount clamps total at zero",
			lines:         []Line{line("10.00", 1)},
			discountType:  DiscountFixed,
			discountValue: "999.99",
			taxRate:       "0",
			wantSub:       "10.00",
			wantDiscount:  "999.99",
			wantTax:       "0",
			wantTotal:     "0",
		},
		{
			name:          "line products with more than two decimals round per line",
			lines:         []Line{line("0.333", 3), line("1.005", 2)},
			discountType:  DiscountNone,
			discountValue: "0",
			taxRate:       "0",
			// 0.333*3 = 0.999 -> 1.00; 1.005*2 = 2.01
			wantSub:      "3.01",
			wantDiscount: "0",
			wantTax:      "0",
			wantTotal:    "3.01",
		},
		{
			name:          "tax applies after discount",
			lines:         []Line{line("100.00", 1)},
			discountType:  DiscountPercentage,
			discountValue: "10",
			taxRate:       "20",
			wantSub:       "100.00",
			wantDiscount:  "10.00",
			wantTax:       "18.00",
			wantTotal:     "108.00",
		},
		{
			name:          "tax on fully discounted document is zero",
			lines:         []Line{line("50.00", 1)},
			discountType:  DiscountFixed,
			discountValue: "100",
			taxRate:       "20",
			wantSub:       "50.00",
			wantDiscount:  "100.00",
			wantTax:       "0",
			wantTotal:     "0",
		},
		{
			name:          "percentage discount rounds half up",
			lines:         []Line{line("33.33", 1)},
			discountType:  DiscountPercentage,
			discountValue: "10",
			taxRate:       "0",
			wantSub:       "33.33",
			wantDiscount:  "3.33",
			wantTax:       "0",
			wantTotal:     "30.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.lines, tt.discountType, decimal.RequireFromString(tt.discountValue), decimal.RequireFromString(tt.taxRate))
			assert.True(t, got.SubTotal.Equal(decimal.RequireFromString(tt.wantSub)), "sub_total = %s, want %s", got.SubTotal, tt.wantSub)
			assert.True(t, got.DiscountAmount.Equal(decimal.RequireFromString(tt.wantDiscount)), "discount = %s, want %s", got.DiscountAmount, tt.wantDiscount)
			assert.True(t, got.TaxAmount.Equal(decimal.RequireFromString(tt.wantTax)), "tax = %s, want %s", got.TaxAmount, tt.wantTax)
			assert.True(t, got.Total.Equal(decimal.RequireFromString(tt.wantTotal)), "total = %s, want %s", got.Total, tt.wantTotal)
		})
	}
}

func TestComputeTotalNeverNegative(t *testing.T) {
	lines := []Line{line("12.34", 2)}
	for _, dv := range []string{"0", "1", "24.68", "25", "1000000"} {
		got := Compute(lines, DiscountFixed, decimal.RequireFromString(dv), decimal.Zero)
		assert.False(t, got.Total.IsNegative(), "total negative for discount %s: %s", dv, got.Total)
	}
	for _, dv := range []string{"0", "50", "100", "150", "10000"} {
		got := Compute(lines, DiscountPercentage, decimal.RequireFromString(dv), decimal.Zero)
		assert.False(t, got.Total.IsNegative(), "total negative for discount %s%%: %s", dv, got.Total)
	}
}

func TestComputeAddRemoveLineDelta(t *testing.T) {
	base := []Line{line("100.00", 2), line("50.00", 1)}
	extra := line("19.99", 3)

	before := Compute(base, DiscountNone, decimal.Zero, decimal.Zero)
	after := Compute(append(append([]Line{}, base...), extra), DiscountNone, decimal.Zero, decimal.Zero)

	delta := extra.Price.Mul(decimal.NewFromInt(int64(extra.Qty))).Round(2)
	assert.True(t, after.SubTotal.Sub(before.SubTotal).Equal(delta))

	removed := Compute(base[:1], DiscountNone, decimal.Zero, decimal.Zero)
	assert.True(t, before.SubTotal.Sub(removed.SubTotal).Equal(decimal.RequireFromString("50.00")))
}
