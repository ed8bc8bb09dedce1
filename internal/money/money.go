// Package money holds the exact decimal arithmetic used for invoice amounts.
// Amounts never pass through float64.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// HoursPlaces is the precision kept when converting tracked seconds to hours.
const HoursPlaces = 16

var (
	secondsPerHour = decimal.NewFromInt(3600)
	hundred        = decimal.NewFromInt(100)
)

// LineAmount returns quantity × unitPrice.
func LineAmount(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice)
}

// Hours converts a duration in seconds to hours, rounded half-up to HoursPlaces.
func Hours(seconds int64) decimal.Decimal {
	return decimal.NewFromInt(seconds).DivRound(secondsPerHour, HoursPlaces)
}

// Sum adds the amounts. Sum() is zero.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// TaxMultiplier returns 1 + rate/100.
func TaxMultiplier(rate decimal.Decimal) decimal.Decimal {
	// rate/100 always terminates, so no rounding happens here
	return decimal.NewFromInt(1).Add(rate.Shift(-2))
}

// ApplyTax returns subtotal × (1 + rate/100).
func ApplyTax(subtotal, rate decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxMultiplier(rate))
}

// Parse reads a decimal from its string form.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ValidTaxRate reports whether rate is a percentage in [0, 100].
func ValidTaxRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(hundred)
}
