package log

import "bujit/internal/core"

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldAccountID   = "account_id"
	FieldAccountName = "account_name"
	FieldAmount      = "amount"
	FieldTxID        = "transaction_id"
	FieldTxKind      = "transaction_kind"
	FieldTxLabel     = "transaction_label"
	FieldCounterpart = "counterparty"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentLedger   = "ledger"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentSecurity = "security"
	ComponentBackend  = "backend"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error message; nil errors are skipped.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithAccount(id int64, name string) LogFields {
	f[FieldAccountID] = id
	f[FieldAccountName] = name
	return f
}

func (f LogFields) WithAmount(m core.Money) LogFields {
	f[FieldAmount] = m.String()
	return f
}

// WithTransaction adds the transaction fields. The counterparty is only
// present for transfers.
func (f LogFields) WithTransaction(tx *core.Transaction) LogFields {
	if tx == nil {
		return f
	}
	f[FieldTxID] = tx.ID().String()
	f[FieldTxKind] = string(tx.Kind())
	f[FieldAmount] = tx.Amount().String()
	if tx.Label() != "" {
		f[FieldTxLabel] = tx.Label()
	}
	if tx.Counterparty() != "" {
		f[FieldCounterpart] = tx.Counterparty()
	}
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
