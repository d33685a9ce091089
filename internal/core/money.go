// Package core provides money parsing and handling utilities.
//
// Amounts are stored as integer cents everywhere; decimal arithmetic only
// happens at the edges (request parsing, display formatting, percentage
// shares) via shopspring/decimal.
package core

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmountToCents converts a decimal string (e.g. "100000" or "12.34")
// to cents, rounding half-up on sub-cent digits. Zero and negative amounts
// are rejected.
func ParseAmountToCents(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Mul(hundred).Round(0)
	if !cents.IsPositive() {
		return 0, ErrInvalidAmount
	}
	if !cents.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// Units returns the whole-currency value for display and JSON output.
func (m Money) Units() float64 {
	f, _ := decimal.New(m.Cents, -2).Float64()
	return f
}

// Decimal returns the whole-currency value as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// FormatAmount renders cents as a plain whole-currency string
// ("45000", "12.5") with no trailing zeros.
func FormatAmount(cents int64) string {
	return decimal.New(cents, -2).String()
}
