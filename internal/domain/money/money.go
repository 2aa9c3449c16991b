package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor currency units (paise).
type Money int64

// Zero is the zero amount
const Zero Money = 0

var ErrInvalidAmount = errors.New("invalid money amount")

var hundred = decimal.NewFromInt(100)

// FromMajor converts whole rupees to Money
func FromMajor(rupees int64) Money {
	return Money(rupees * 100)
}

// Parse reads a decimal major-unit string such as "33.33" or "499".
// More than two fractional digits is rejected rather than rounded.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	minor := d.Mul(hundred)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("%w: %q has sub-paisa precision", ErrInvalidAmount, s)
	}
	return Money(minor.IntPart()), nil
}

// Times multiplies a unit amount by a quantity
func (m Money) Times(qty int) Money {
	return m * Money(qty)
}

// Percent returns pct percent of m, rounded half-up to the paisa.
func (m Money) Percent(pct decimal.Decimal) Money {
	v := decimal.NewFromInt(int64(m)).Mul(pct).Div(hundred)
	return Money(v.Round(0).IntPart())
}

// Min returns the smaller of two amounts
func Min(a, b Money) Money {
	if a < b {
		return a
	}
	return b
}

// Decimal returns the amount in major units
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

func (m Money) String() string {
	return "₹" + m.Decimal().StringFixed(2)
}
