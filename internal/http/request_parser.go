package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"bujit/internal/core"
	"bujit/internal/validate"
)

const maxBodyBytes = 64 << 10

// RequestBodyParser reads a JSON object or a form-encoded body once and
// exposes its fields as strings. JSON numbers keep their literal text.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	err      error
}

func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if p.err != nil {
		return p
	}
	p.err = p.parse()
	return p
}

func (p *RequestBodyParser) parse() error {
	body := bytes.TrimSpace(p.body)
	if len(body) == 0 {
		p.formData = url.Values{}
		return nil
	}
	if body[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		p.jsonData = map[string]any{}
		return dec.Decode(&p.jsonData)
	}
	var err error
	p.formData, err = url.ParseQuery(string(body))
	return err
}

func (p *RequestBodyParser) Err() error { return p.err }

// Has reports whether key was sent, even with an empty value.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		v, ok := p.jsonData[key]
		return ok && v != nil
	}
	_, ok := p.formData[key]
	return ok
}

func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		return sanitizeInput(stringValue(p.jsonData[key]))
	}
	return sanitizeInput(p.formData.Get(key))
}

func (p *RequestBodyParser) Input(key string) validate.Input {
	return validate.Input(p.Get(key))
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

const (
	labelName    = "Name"
	labelBalance = "Balance"
	labelPercent = "Pay Percentage"
	labelAmount  = "Amount"
	labelFrom    = "From"
	labelTo      = "To"
)

type createAccountInput struct {
	Name    string
	Balance core.Money
	Percent decimal.Decimal
}

func parseCreateAccount(p *RequestBodyParser) (createAccountInput, error) {
	var in createAccountInput
	var err error
	if in.Name, err = validate.Name(labelName, p.Get("name")); err != nil {
		return in, err
	}
	if in.Balance, err = validate.Money(validate.MoneyRule{Label: labelBalance}, p.Input("balance")); err != nil {
		return in, err
	}
	in.Percent, err = validate.Percent(labelPercent, false, p.Input("percent"))
	return in, err
}

// parseUpdateAccount applies the fields present in the body on top of the
// account's current name and percent.
func parseUpdateAccount(p *RequestBodyParser, current *core.Account) (string, decimal.Decimal, error) {
	name, percent := current.Name, current.Percent
	var err error
	if p.Has("name") {
		if name, err = validate.Name(labelName, p.Get("name")); err != nil {
			return "", decimal.Zero, err
		}
	}
	if p.Has("percent") {
		if percent, err = validate.Percent(labelPercent, true, p.Input("percent")); err != nil {
			return "", decimal.Zero, err
		}
	}
	return name, percent, nil
}

type movementInput struct {
	Amount core.Money
	Label  string
}

// parseMovement reads a deposit or withdrawal. A non-nil source bounds the
// amount by its balance.
func parseMovement(p *RequestBodyParser, source *core.Account) (movementInput, error) {
	rule := validate.MoneyRule{Label: labelAmount, Required: true, Source: source}
	amount, err := validate.Money(rule, p.Input("amount"))
	if err != nil {
		return movementInput{}, err
	}
	return movementInput{Amount: amount, Label: p.Get("label")}, nil
}

// parseTransferAccounts reads the two account ids of a transfer.
func parseTransferAccounts(p *RequestBodyParser) (from, to int64, err error) {
	if from, err = accountRef(labelFrom, p.Get("from")); err != nil {
		return 0, 0, err
	}
	if to, err = accountRef(labelTo, p.Get("to")); err != nil {
		return 0, 0, err
	}
	return from, to, validate.DistinctAccounts(from, to)
}

func accountRef(label, raw string) (int64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, &validate.Error{Field: label, Message: label + " is required"}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &validate.Error{Field: label, Message: fmt.Sprintf("%s must be an account id", label)}
	}
	return id, nil
}

func parseTransferAmount(p *RequestBodyParser, source *core.Account) (core.Money, error) {
	return validate.Money(validate.MoneyRule{
		Label:    labelAmount,
		Required: true,
		Source:   source,
	}, p.Input("amount"))
}

func parsePayout(p *RequestBodyParser) (core.Money, error) {
	return validate.Money(validate.MoneyRule{Label: labelAmount, Required: true}, p.Input("amount"))
}
