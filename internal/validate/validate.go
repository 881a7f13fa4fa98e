// Package validate checks user input before it reaches the ledger. Messages
// name the field by its label so they can be shown as-is.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bujit/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Error is a user-facing validation failure for one field.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string { return e.Message }

func fail(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// As reports whether err carries a validation Error.
func As(err error) (*Error, bool) {
	var ve *Error
	ok := errors.As(err, &ve)
	return ve, ok
}

// Input is a raw numeric field. It accepts JSON strings and numbers and
// keeps the text so precision can be checked before rounding.
type Input string

func (in *Input) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*in = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*in = Input(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*in = Input(n.String())
	}
	return nil
}

func (in Input) IsEmpty() bool { return strings.TrimSpace(string(in)) == "" }

// Name requires a non-blank name.
func Name(label, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", fail(label, "%s is required", label)
	}
	return v, nil
}

// MoneyRule describes one money field.
type MoneyRule struct {
	Label    string
	Required bool
	// Source, when set, is the account the amount is taken from; the amount
	// must not exceed its balance.
	Source *core.Account
}

// Money parses a non-negative amount with at most two decimal places.
// Empty optional fields are zero.
func Money(rule MoneyRule, raw Input) (core.Money, error) {
	if raw.IsEmpty() {
		if rule.Required {
			return core.Money{}, fail(rule.Label, "%s is required", rule.Label)
		}
		return core.Money{}, nil
	}
	s := strings.TrimSpace(string(raw))
	if _, err := core.ParseMoney(s); err != nil {
		return core.Money{}, fail(rule.Label, "%s must be a number", rule.Label)
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return core.Money{}, fail(rule.Label, "%s must be a number", rule.Label)
	}
	if d.IsNegative() {
		return core.Money{}, fail(rule.Label, "%s must be greater than or equal to 0", rule.Label)
	}
	if d.GreaterThan(core.MaxMoney.Decimal()) {
		return core.Money{}, fail(rule.Label, "%s must be less than or equal to %s", rule.Label, core.MaxMoney)
	}
	if !d.Equal(d.Round(core.MoneyPlaces)) {
		return core.Money{}, fail(rule.Label, "%s must be 2 decimal places", rule.Label)
	}
	amount := core.NewMoney(d)
	if rule.Source != nil && !SufficientFunds(rule.Source, amount) {
		return core.Money{}, fail(rule.Label, "%s [$%s] doesn't have sufficient funds", rule.Source.Name, rule.Source.Balance())
	}
	return amount, nil
}

// Percent parses an integer between 0 and 100. Empty optional fields are
// zero.
func Percent(label string, required bool, raw Input) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		if required {
			return decimal.Zero, fail(label, "%s is required", label)
		}
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fail(label, "%s must be a number", label)
	}
	switch {
	case d.IsNegative():
		return decimal.Zero, fail(label, "%s must be greater than or equal to 0", label)
	case d.GreaterThan(hundred):
		return decimal.Zero, fail(label, "%s must be less than or equal to 100", label)
	case !d.Equal(d.Truncate(0)):
		return decimal.Zero, fail(label, "%s must be only integers", label)
	}
	return d, nil
}

// SufficientFunds reports whether the account can cover amount without
// going negative.
func SufficientFunds(a *core.Account, amount core.Money) bool {
	return a != nil && a.Balance().Cmp(amount) >= 0
}

// DistinctAccounts rejects a transfer whose source and target match.
func DistinctAccounts(from, to int64) error {
	if from == to {
		return fail("To", "From and To must be different accounts")
	}
	return nil
}
