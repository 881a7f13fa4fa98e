// Package core holds the ledger's value types: Money, transactions, accounts
// and their bounded history.
//
// Money wraps a shopspring decimal fixed at two fractional digits. Every
// operation that can produce more digits rounds half away from zero, which for
// the non-negative amounts entered by users is the familiar half-up rule
// (0.005 -> 0.01). Amounts are persisted as integer cents.
package core

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits kept by Money.
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

var (
	ErrInvalidMoney  = errors.New("invalid money amount")
	ErrMoneyOverflow = errors.New("money amount out of range")
)

// MaxMoney is the largest amount whose cents fit in an int64.
var MaxMoney = MoneyFromCents(math.MaxInt64)

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// Money is an exact currency amount with two fractional digits.
// The zero value is 0.00.
type Money struct {
	amount decimal.Decimal
}

// NewMoney rounds d to two places.
func NewMoney(d decimal.Decimal) Money {
	return Money{amount: d.Round(MoneyPlaces)}
}

// MoneyFromCents builds an amount from minor units.
func MoneyFromCents(cents int64) Money {
	return Money{amount: decimal.New(cents, -MoneyPlaces)}
}

// ParseMoney converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) separators and an optional
// leading minus sign. Digits past the second decimal place are rounded:
//
//	ParseMoney("12.345") -> 12.35
//	ParseMoney("12,344") -> 12.34
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	digits := strings.TrimPrefix(s, "-")
	if digits == "" || digits == "." || strings.Count(digits, ".") > 1 {
		return Money{}, ErrInvalidMoney
	}
	for _, r := range digits {
		if r != '.' && !unicode.IsDigit(r) {
			return Money{}, ErrInvalidMoney
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidMoney
	}
	return NewMoney(d), nil
}

// MustParseMoney is ParseMoney for literals known to be valid.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic("core: invalid money literal " + s)
	}
	return m
}

// Add returns a + b.
func Add(a, b Money) Money {
	return Money{amount: a.amount.Add(b.amount)}
}

// Subtract returns a - b.
func Subtract(a, b Money) Money {
	return Money{amount: a.amount.Sub(b.amount)}
}

// PercentOf returns percent% of amount rounded to two places.
func PercentOf(amount Money, percent decimal.Decimal) Money {
	return NewMoney(amount.amount.Mul(percent).Div(hundred))
}

// Sum adds all amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, m := range amounts {
		total = Add(total, m)
	}
	return total
}

func (m Money) Add(o Money) Money      { return Add(m, o) }
func (m Money) Subtract(o Money) Money { return Subtract(m, o) }

// Decimal exposes the underlying value.
func (m Money) Decimal() decimal.Decimal { return m.amount }

// Cents returns the amount in minor units. The result is undefined outside
// the int64 range; use ExactCents where that matters.
func (m Money) Cents() int64 {
	return m.amount.Shift(MoneyPlaces).IntPart()
}

// ExactCents returns the amount in minor units, or ErrMoneyOverflow when it
// does not fit in an int64.
func (m Money) ExactCents() (int64, error) {
	c := m.amount.Round(MoneyPlaces).Shift(MoneyPlaces)
	if c.GreaterThan(maxCents) || c.LessThan(minCents) {
		return 0, fmt.Errorf("%w: %s", ErrMoneyOverflow, m)
	}
	return c.IntPart(), nil
}

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }
func (m Money) Equal(o Money) bool {
	return m.amount.Equal(o.amount)
}

// Cmp returns -1, 0 or +1 comparing m to o.
func (m Money) Cmp(o Money) int { return m.amount.Cmp(o.amount) }

// String formats with exactly two decimals, e.g. "-35.00".
func (m Money) String() string {
	return m.amount.StringFixed(MoneyPlaces)
}

// MarshalJSON encodes the amount as a decimal string so clients never see a
// float.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts "12.34" or 12.34.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	parsed, err := ParseMoney(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
