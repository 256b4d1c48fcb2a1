// Package money converts user-facing decimal amounts to integer cents and back.
// All ledger arithmetic happens in cents so there is no floating-point drift.
package money

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Cents is a signed amount of minor currency units.
type Cents int64

var ErrInvalidAmount = errors.New("invalid amount")

var hundred = decimal.NewFromInt(100)

// ToCents converts a major-unit amount (e.g. 12.345) to cents,
// rounding half away from zero (12.345 -> 1235, -12.345 -> -1235).
func ToCents(v float64) (Cents, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %f", ErrInvalidAmount, v)
	}

	d := decimal.NewFromFloat(v).Mul(hundred).Round(0)
	return Cents(d.IntPart()), nil
}

// ParseCents converts a decimal string (e.g. "12.34") to cents,
// with the same rounding as ToCents.
func ParseCents(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	return Cents(d.Mul(hundred).Round(0).IntPart()), nil
}

// String formats the amount in major units with exactly two fractional digits.
func (c Cents) String() string {
	n := int64(c)
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return fmt.Sprintf("%s%d.%02d", sign, n/100, n%100)
}

// Split divides total into n shares. The first share absorbs the
// indivisible remainder, so 100/3 becomes 34, 33, 33.
func Split(total Cents, n int) []Cents {
	if n <= 0 {
		return nil
	}

	part := total / Cents(n)
	rest := total - part*Cents(n)

	shares := make([]Cents, n)
	for i := range shares {
		shares[i] = part
	}
	shares[0] += rest

	return shares
}
