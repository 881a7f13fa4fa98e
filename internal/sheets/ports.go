// Package sheets defines the export port for committed ledger entries and
// the row layout shared by its adapters.
package sheets

import (
	"context"
	"time"
)

// DateLayout is how row dates are written.
const DateLayout = "2006-01-02 15:04:05"

// Header is the first row of an export sheet.
var Header = []any{"Date", "Account", "Kind", "Amount", "Label", "Counterparty", "Balance", "Transaction ID"}

// Row is one exported transaction with the account balance right after it.
type Row struct {
	Date          time.Time
	Account       string
	Kind          string
	Amount        string
	Label         string
	Counterparty  string
	Balance       string
	TransactionID int64
}

// Values returns the row in Header order.
func (r Row) Values() []any {
	return []any{
		r.Date.UTC().Format(DateLayout),
		r.Account,
		r.Kind,
		r.Amount,
		r.Label,
		r.Counterparty,
		r.Balance,
		r.TransactionID,
	}
}

// TransactionExporter appends rows to an export target and returns a
// reference to where they landed.
type TransactionExporter interface {
	AppendRows(ctx context.Context, rows []Row) (ref string, err error)
}
