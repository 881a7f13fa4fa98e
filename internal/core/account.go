package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyName      = errors.New("empty account name")
	ErrInvalidPercent = errors.New("percent must be between 0 and 100")
)

var maxPercent = decimal.NewFromInt(100)

// Account is a named balance with a payout share and a bounded audit window
// of its latest transactions.
type Account struct {
	id        ID
	ClientRef string
	Name      string
	Percent   decimal.Decimal
	balance   Money
	history   History
}

// NewAccount builds an unsaved account with an opening balance. The opening
// balance is not recorded as a transaction.
func NewAccount(name string, balance Money, percent decimal.Decimal) *Account {
	return &Account{
		Name:    name,
		Percent: percent,
		balance: balance,
	}
}

// RestoreAccount rebuilds a persisted account. history must be newest first;
// only the newest HistoryCapacity entries are kept.
func RestoreAccount(id int64, clientRef, name string, balance Money, percent decimal.Decimal, history []*Transaction) *Account {
	a := NewAccount(name, balance, percent)
	a.id.Set(id)
	a.ClientRef = clientRef
	n := min(len(history), HistoryCapacity)
	for i := n - 1; i >= 0; i-- {
		a.history.Push(history[i])
	}
	return a
}

func (a *Account) ID() ID                { return a.id }
func (a *Account) AssignID(v int64) bool { return a.id.Set(v) }
func (a *Account) Balance() Money        { return a.balance }

// Credit increases the balance. There is no upper bound.
func (a *Account) Credit(amount Money) {
	a.balance = Add(a.balance, amount)
}

// Debit decreases the balance. It never fails; callers check funds first.
func (a *Account) Debit(amount Money) {
	a.balance = Subtract(a.balance, amount)
}

func (a *Account) Rename(name string)                { a.Name = name }
func (a *Account) SetPercent(percent decimal.Decimal) { a.Percent = percent }

// RecordTransaction prepends a new transaction to the history and returns it
// together with the entry pushed out of the window, if any.
func (a *Account) RecordTransaction(amount Money, kind Kind, opts TxOptions) (tx, evicted *Transaction) {
	tx = NewTransaction(amount, kind, opts)
	evicted = a.history.Push(tx)
	return tx, evicted
}

// PercentOf returns this account's payout share of amount.
func (a *Account) PercentOf(amount Money) Money {
	return PercentOf(amount, a.Percent)
}

// History returns the retained transactions, newest first.
func (a *Account) History() []*Transaction { return a.history.Items() }

// HistoryLen is len(History()) without the copy.
func (a *Account) HistoryLen() int { return a.history.Len() }

// LatestTransaction returns the newest retained transaction or nil.
func (a *Account) LatestTransaction() *Transaction { return a.history.Newest() }

// Clone copies the account for staging. Transactions are shared; they are
// immutable apart from their set-once ID.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

// Validate checks the fields a user controls.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if a.Percent.IsNegative() || a.Percent.GreaterThan(maxPercent) {
		return ErrInvalidPercent
	}
	return nil
}
