// Package core provides money parsing and handling utilities.
//
// Amounts are carried as decimals so that display rounding never drifts
// from what the backend stores.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// NewMoney wraps a decimal.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// MoneyFromFloat converts a JSON number from the backend.
func MoneyFromFloat(f float64) Money {
	return Money{Decimal: decimal.NewFromFloat(f)}
}

// ParseAmount parses a user-entered amount.
//
// It accepts dot or comma as decimal separator and surrounding spaces.
// Empty, non-numeric, NaN/Inf and negative inputs return ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("abc")   -> 0, ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	// Values beyond float64 range cannot be sent as JSON numbers.
	if f, _ := d.Float64(); math.IsInf(f, 0) {
		return Money{}, ErrInvalidAmount
	}
	m := Money{Decimal: d}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// Float64 returns the amount as a JSON-friendly number.
func (m Money) Float64() float64 {
	f, _ := m.Decimal.Float64()
	return f
}

// Fixed returns the amount rounded to two decimals without a currency sign.
func (m Money) Fixed() string {
	return m.StringFixed(2)
}

// FormatDollars renders an amount as "$12.34" (negative values as "-$12.34").
func FormatDollars(m Money) string {
	if m.IsNegative() {
		return "-$" + m.Neg().StringFixed(2)
	}
	return "$" + m.StringFixed(2)
}
