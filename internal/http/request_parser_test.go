package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"bujit/internal/core"
)

func parserFor(body string) *RequestBodyParser {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	return NewRequestBodyParser(httptest.NewRecorder(), req)
}

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name string
		body string
		key  string
		want string
		has  bool
	}{
		{"json string", `{"name":" Rent\u0007 "}`, "name", "Rent", true},
		{"json number keeps text", `{"amount":10.10}`, "amount", "10.10", true},
		{"json null", `{"amount":null}`, "amount", "", false},
		{"json missing", `{}`, "amount", "", false},
		{"form value", "amount=3.50&label=x", "amount", "3.50", true},
		{"form empty value", "amount=", "amount", "", true},
		{"empty body", "", "amount", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := parserFor(tt.body)
			if err := p.Err(); err != nil {
				t.Fatalf("Err() = %v", err)
			}
			if got := p.Get(tt.key); got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
			if got := p.Has(tt.key); got != tt.has {
				t.Errorf("Has(%q) = %v, want %v", tt.key, got, tt.has)
			}
		})
	}

	if err := parserFor(`{"amount":`).Err(); err == nil {
		t.Error("expected an error for truncated JSON")
	}
	if err := parserFor(`{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`).Err(); err == nil {
		t.Error("expected an error for an oversized body")
	}
}

func TestParseUpdateAccount_KeepsAbsentFields(t *testing.T) {
	current := core.NewAccount("Rent", core.MoneyFromCents(0), decimal.NewFromInt(30))

	name, percent, err := parseUpdateAccount(parserFor(`{"percent":45}`), current)
	if err != nil {
		t.Fatalf("parseUpdateAccount() error = %v", err)
	}
	if name != "Rent" || !percent.Equal(decimal.NewFromInt(45)) {
		t.Fatalf("got %q %s", name, percent)
	}

	if _, _, err := parseUpdateAccount(parserFor(`{"name":""}`), current); err == nil || err.Error() != "Name is required" {
		t.Fatalf("expected name error, got %v", err)
	}
}

func TestParseTransferAccounts(t *testing.T) {
	tests := []struct {
		body    string
		wantErr string
	}{
		{`{"from":1,"to":2}`, ""},
		{`{"from":"1","to":"2"}`, ""},
		{`{"to":2}`, "From is required"},
		{`{"from":1}`, "To is required"},
		{`{"from":"abc","to":2}`, "From must be an account id"},
		{`{"from":-3,"to":2}`, "From must be an account id"},
		{`{"from":2,"to":2}`, "From and To must be different accounts"},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			_, _, err := parseTransferAccounts(parserFor(tt.body))
			got := ""
			if err != nil {
				got = err.Error()
			}
			if got != tt.wantErr {
				t.Errorf("error = %q, want %q", got, tt.wantErr)
			}
		})
	}
}
