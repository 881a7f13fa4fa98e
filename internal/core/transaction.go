package core

import (
	"fmt"
	"time"
)

const (
	Deposit     Kind = "deposit"
	Withdrawal  Kind = "withdrawal"
	TransferOut Kind = "transfer-out"
	TransferIn  Kind = "transfer-in"
	Payout      Kind = "payout"
)

// PayoutLabel is the label recorded on every payout entry.
const PayoutLabel = "Paid"

// Kind is the type of a ledger event.
type Kind string

// Kinds lists every valid kind.
func Kinds() []Kind {
	return []Kind{Deposit, Withdrawal, TransferOut, TransferIn, Payout}
}

func (k Kind) IsValid() bool {
	switch k {
	case Deposit, Withdrawal, TransferOut, TransferIn, Payout:
		return true
	}
	return false
}

// IsCredit reports whether the kind adds money to its account.
func (k Kind) IsCredit() bool {
	return k == Deposit || k == TransferIn || k == Payout
}

// IsTransfer reports whether the kind is one side of a transfer.
func (k Kind) IsTransfer() bool {
	return k == TransferOut || k == TransferIn
}

func (k Kind) String() string { return string(k) }

// ParseKind validates a stored or user supplied kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown transaction kind %q", s)
	}
	return k, nil
}

// ID is a store-assigned identifier that can be set exactly once.
// The zero value is unset.
type ID struct {
	value int64
	set   bool
}

// Set assigns v if the ID is still unset. Later calls are ignored and report
// false.
func (id *ID) Set(v int64) bool {
	if id.set {
		return false
	}
	id.value, id.set = v, true
	return true
}

// Get returns the value and whether it has been assigned.
func (id ID) Get() (int64, bool) { return id.value, id.set }

func (id ID) IsSet() bool { return id.set }

// Int64 returns the value, or 0 when unset.
func (id ID) Int64() int64 { return id.value }

func (id ID) String() string {
	if !id.set {
		return "<unset>"
	}
	return fmt.Sprintf("%d", id.value)
}

// TxOptions carries the optional parts of a transaction.
type TxOptions struct {
	Label        string
	Counterparty string
	// Timestamp defaults to the current time when zero.
	Timestamp time.Time
}

// Transaction is one immutable ledger event. Only its ID may change, once,
// when the store first persists it.
type Transaction struct {
	id           ID
	amount       Money
	kind         Kind
	label        string
	counterparty string
	timestamp    time.Time
}

// NewTransaction builds an unsaved transaction. Counterparty is kept only for
// transfer kinds.
func NewTransaction(amount Money, kind Kind, opts TxOptions) *Transaction {
	ts := opts.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	tx := &Transaction{
		amount:    amount,
		kind:      kind,
		label:     opts.Label,
		timestamp: ts.UTC(),
	}
	if kind.IsTransfer() {
		tx.counterparty = opts.Counterparty
	}
	return tx
}

// RestoreTransaction rebuilds a persisted transaction.
func RestoreTransaction(id int64, amount Money, kind Kind, opts TxOptions) *Transaction {
	tx := NewTransaction(amount, kind, opts)
	tx.id.Set(id)
	return tx
}

func (t *Transaction) ID() ID               { return t.id }
func (t *Transaction) Amount() Money        { return t.amount }
func (t *Transaction) Kind() Kind           { return t.kind }
func (t *Transaction) Label() string        { return t.label }
func (t *Transaction) Counterparty() string { return t.counterparty }
func (t *Transaction) Timestamp() time.Time { return t.timestamp }

// AssignID records the store id; see ID.Set.
func (t *Transaction) AssignID(v int64) bool { return t.id.Set(v) }

// SignedAmount is the effect on the account balance.
func (t *Transaction) SignedAmount() Money {
	if t.kind.IsCredit() {
		return t.amount
	}
	return Subtract(Money{}, t.amount)
}
