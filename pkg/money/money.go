// Package money carries amounts in minor currency units end to end.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount is a value in minor units (cents for USD/EUR).
type Amount int64

// ErrInvalidAmount is returned when an amount string cannot be parsed.
var ErrInvalidAmount = errors.New("money: invalid amount")

// FromMajor converts a major-unit value (12.34 dollars) to minor units, rounding half away from zero.
func FromMajor(major float64) Amount {
	return Amount(math.Round(major * 100))
}

// Major returns the amount in major units.
func (a Amount) Major() float64 {
	return float64(a) / 100
}

// String renders the amount with two decimals, without a currency symbol.
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// ParseMajor parses an explicit major-unit string such as "12.34" or "25".
func ParseMajor(s string) (Amount, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromMajor(v), nil
}

// ParseLegacy reproduces the untyped-amount rule used by older callers:
// a value containing a decimal point, or a fractional value in (0,1), is major
// units and gets multiplied by 100 and rounded; any other integer-looking
// value is taken to already be in minor units. "12.34" -> 1234, "25" -> 25,
// "0.5" -> 50. New code should use FromMajor or ParseMajor instead.
func ParseLegacy(s string) (Amount, error) {
	clean := strings.TrimSpace(s)
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if strings.Contains(clean, ".") || (v > 0 && v < 1) {
		return FromMajor(v), nil
	}
	return Amount(math.Round(v)), nil
}
