// Package core holds the domain model and the pure normalization pipeline:
// money formatting, date parsing, and the conversion of raw backend records
// into display-ready transactions and balances.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBRL formats a numeric amount as Brazilian Real currency, e.g.
// 5000 -> "R$ 5.000,00". The locale is fixed: dot for thousands grouping,
// comma as decimal separator, always two fractional digits.
//
// Rounding is half-up on the magnitude (12.345 -> "R$ 12,35"). All money
// display in this service goes through here, so the rounding mode is
// decided exactly once.
//
// NaN and infinities are not formattable and return ErrInvalidAmount.
func FormatBRL(v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", ErrInvalidAmount
	}

	d := decimal.NewFromFloat(v)
	neg := d.IsNegative()
	// StringFixed rounds half away from zero, which on the absolute value
	// is exactly half-up.
	fixed := d.Abs().StringFixed(2)

	parts := strings.SplitN(fixed, ".", 2)
	grouped := groupThousands(parts[0])

	var b strings.Builder
	if neg {
		b.WriteString("-")
	}
	b.WriteString("R$ ")
	b.WriteString(grouped)
	b.WriteString(",")
	b.WriteString(parts[1])
	return b.String(), nil
}

// groupThousands inserts a dot every three digits from the right.
func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteString(".")
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
