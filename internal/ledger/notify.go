package ledger

import (
	"context"
	"time"

	"bujit/internal/core"
)

// Op names a collaborator-facing operation.
type Op string

const (
	OpCreateAccount    Op = "create_account"
	OpDeleteAccount    Op = "delete_account"
	OpRenameOrReweight Op = "rename_or_reweight"
	OpDeposit          Op = "deposit"
	OpWithdraw         Op = "withdraw"
	OpTransfer         Op = "transfer"
	OpPayout           Op = "payout"
	OpApply            Op = "apply"
)

// Entry pairs a transaction recorded by an operation with the account it
// belongs to, as committed.
type Entry struct {
	Account     *core.Account
	Transaction *core.Transaction
}

// Completion is emitted once per operation, after the store acknowledged all
// writes or after the first failure.
type Completion struct {
	Op       Op
	At       time.Time
	Accounts []*core.Account // refreshed list, clones
	Entries  []Entry
	Err      error
}

// OK reports whether the operation committed.
func (c Completion) OK() bool { return c.Err == nil }

// Listener receives completions synchronously on the goroutine that ran the
// operation and must return quickly.
type Listener func(ctx context.Context, c Completion)
