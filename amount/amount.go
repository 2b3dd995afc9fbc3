// Package amount formats, validates and parses the amounts typed into the
// exchange fields.
//
// Rounding rule: Round2 rounds half away from zero at the second decimal,
// applied to the shortest decimal representation of the float. 1.005 becomes
// 1.01 and 2.675 becomes 2.68, even though neither is exactly representable
// as a float64.
package amount

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMalformed returned by Parse for text that is not a plain decimal number
var ErrMalformed = errors.New("malformed amount")

var (
	// typed input: digits, optionally one point and at most two decimals
	typed = regexp.MustCompile(`^\d*(\.\d{0,2})?$`)

	// anything Parse understands
	plain = regexp.MustCompile(`^\d*(\.\d*)?$`)
)

// Round2 rounds x to 2 decimals, half away from zero.
// NaN and infinities are returned unchanged.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return round(x).InexactFloat64()
}

func round(x float64) decimal.Decimal {
	return decimal.NewFromFloat(x).Round(2)
}

// Format rounds x to 2 decimals and renders it with '.' as decimal separator
// and without trailing zeros: 35.28, 252, 0.5. Values that cannot be
// displayed as an amount (NaN, infinities) render as "0".
func Format(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "0"
	}
	return round(x).String()
}

// Valid reports whether raw is acceptable typed input for an amount field.
// The empty string is not valid; callers treat it as a reset.
func Valid(raw string) bool {
	return raw != "" && typed.MatchString(raw)
}

// Normalize returns raw as it should be displayed: a single leading zero is
// dropped when something other than a decimal point follows it ("05" -> "5",
// "0.5" and "0" unchanged). A trailing '.' is kept so typing can continue.
func Normalize(raw string) string {
	if len(raw) > 1 && raw[0] == '0' && raw[1] != '.' {
		return raw[1:]
	}
	return raw
}

// Parse reads partial or complete amount text. "", "." and "0." read as zero,
// "12." as 12 and ".5" as 0.5.
func Parse(raw string) (float64, error) {
	if !plain.MatchString(raw) {
		return 0, fmt.Errorf("parse %q: %w", raw, ErrMalformed)
	}
	s := strings.TrimSuffix(raw, ".")
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", raw, ErrMalformed)
	}
	return d.InexactFloat64(), nil
}

// ParseOrZero is Parse for text already accepted by Valid or produced by
// Format. Anything else reads as zero.
func ParseOrZero(raw string) float64 {
	f, err := Parse(raw)
	if err != nil {
		return 0
	}
	return f
}
