package http

import (
	"encoding/json"
	"net/http"
	"time"

	"bujit/internal/core"
	"bujit/internal/log"
)

// JSONResponseBuilder provides a fluent API for JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the response. Encoding failures are logged; the status line
// has already gone out by then.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter, r *http.Request) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response", log.FieldError, err)
	}
}

type errorBody struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse builds a JSON error with a user-facing message.
func ErrorResponse(r *http.Request, status int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(status).
		Body(errorBody{Error: message, RequestID: requestIDFrom(r)})
}

// FieldError builds a 422 naming the offending field.
func FieldError(r *http.Request, field, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusUnprocessableEntity).
		Body(errorBody{Error: message, Field: field, RequestID: requestIDFrom(r)})
}

type transactionView struct {
	ID           int64      `json:"id"`
	Kind         core.Kind  `json:"kind"`
	Credit       bool       `json:"credit"`
	Amount       core.Money `json:"amount"`
	SignedAmount core.Money `json:"signed_amount"`
	Label        string     `json:"label,omitempty"`
	Counterparty string     `json:"counterparty,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
}

type accountView struct {
	ID        int64             `json:"id"`
	ClientRef string            `json:"client_ref"`
	Name      string            `json:"name"`
	Balance   core.Money        `json:"balance"`
	Percent   string            `json:"percent"`
	History   []transactionView `json:"history,omitempty"`
}

type accountsBody struct {
	Account  *accountView  `json:"account,omitempty"`
	Accounts []accountView `json:"accounts"`
}

type historyBody struct {
	AccountID    int64             `json:"account_id"`
	Capacity     int               `json:"capacity"`
	Transactions []transactionView `json:"transactions"`
}

func newTransactionView(tx *core.Transaction) transactionView {
	return transactionView{
		ID:           tx.ID().Int64(),
		Kind:         tx.Kind(),
		Credit:       tx.Kind().IsCredit(),
		Amount:       tx.Amount(),
		SignedAmount: tx.SignedAmount(),
		Label:        tx.Label(),
		Counterparty: tx.Counterparty(),
		Timestamp:    tx.Timestamp(),
	}
}

func newTransactionViews(txs []*core.Transaction) []transactionView {
	views := make([]transactionView, 0, len(txs))
	for _, tx := range txs {
		views = append(views, newTransactionView(tx))
	}
	return views
}

func newAccountView(a *core.Account, withHistory bool) accountView {
	v := accountView{
		ID:        a.ID().Int64(),
		ClientRef: a.ClientRef,
		Name:      a.Name,
		Balance:   a.Balance(),
		Percent:   a.Percent.String(),
	}
	if withHistory {
		v.History = newTransactionViews(a.History())
	}
	return v
}

func newAccountsBody(accounts []*core.Account) accountsBody {
	body := accountsBody{Accounts: make([]accountView, 0, len(accounts))}
	for _, a := range accounts {
		body.Accounts = append(body.Accounts, newAccountView(a, false))
	}
	return body
}
