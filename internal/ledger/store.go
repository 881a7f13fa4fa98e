// Package ledger applies money movements to accounts and persists them.
//
// The Service keeps a working copy of every account in a Repository, stages
// mutations on clones, commits the resulting writes to a Store as one Batch,
// and only then publishes the clones as the new in-memory state.
package ledger

import (
	"context"
	"errors"

	"bujit/internal/core"
)

var (
	// ErrStoreUnavailable wraps every failed store write or load.
	ErrStoreUnavailable = errors.New("ledger store unavailable")
	ErrAccountNotFound  = errors.New("account not found")
	ErrNotLoaded        = errors.New("ledger not loaded")
)

// Store is the durable side of the ledger: two keyed collections, accounts
// and transactions, with transactions scoped to an account.
type Store interface {
	// PutAccount inserts the account when its ID is unset and updates it
	// otherwise. It returns the account's ID.
	PutAccount(ctx context.Context, a *core.Account) (int64, error)
	// DeleteAccount removes the account and every transaction scoped to it.
	DeleteAccount(ctx context.Context, id int64) error
	PutTransaction(ctx context.Context, tx *core.Transaction, accountID int64) (int64, error)
	DeleteTransaction(ctx context.Context, id int64) error
	// LoadAll returns every account and, per account ID, its transactions.
	// Callers must not rely on the order or count of the transactions.
	LoadAll(ctx context.Context) ([]*core.Account, map[int64][]*core.Transaction, error)
}

// Transactor is implemented by stores that can run several writes as one
// atomic unit. fn receives a Store bound to that unit.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(Store) error) error
}

// UserMessage turns an operation error into the single sentence shown to the
// user. Partial success is not distinguished from total failure.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "The ledger took too long to respond. Please try again."
	case errors.Is(err, ErrAccountNotFound):
		return "That account no longer exists."
	case errors.Is(err, ErrNotLoaded):
		return "The ledger is still starting up. Please try again in a moment."
	default:
		return "Your changes could not be saved. Please try again."
	}
}
