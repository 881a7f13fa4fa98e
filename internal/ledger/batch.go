package ledger

import (
	"context"
	"fmt"

	"bujit/internal/core"
)

type stepKind int

const (
	stepPutAccount stepKind = iota
	stepPutTransaction
	stepDeleteTransaction
)

type step struct {
	kind    stepKind
	account *core.Account
	tx      *core.Transaction
}

func (s step) String() string {
	switch s.kind {
	case stepPutAccount:
		return "put account " + s.account.ID().String()
	case stepPutTransaction:
		return fmt.Sprintf("put %s transaction for account %s", s.tx.Kind(), s.account.ID())
	default:
		return "delete transaction " + s.tx.ID().String()
	}
}

// Batch is an ordered list of store writes belonging to one logical
// operation. IDs returned by the store are assigned to the staged records as
// the writes are acknowledged.
type Batch struct {
	steps []step
}

func (b *Batch) PutAccount(a *core.Account) {
	b.steps = append(b.steps, step{kind: stepPutAccount, account: a})
}

// PutTransaction stages tx for account a. The account ID is read when the
// step runs, so a may be inserted earlier in the same batch.
func (b *Batch) PutTransaction(tx *core.Transaction, a *core.Account) {
	b.steps = append(b.steps, step{kind: stepPutTransaction, account: a, tx: tx})
}

// DeleteTransaction stages removal of a persisted transaction. Unsaved ones
// are ignored since the store never saw them.
func (b *Batch) DeleteTransaction(tx *core.Transaction) {
	if tx == nil || !tx.ID().IsSet() {
		return
	}
	b.steps = append(b.steps, step{kind: stepDeleteTransaction, tx: tx})
}

func (b *Batch) Len() int { return len(b.steps) }

// Commit issues the writes in order and stops at the first failure. Writes
// acknowledged before the failure stay in the store; run Commit inside
// Transactor.WithinTx to avoid that.
func (b *Batch) Commit(ctx context.Context, store Store) error {
	for i, s := range b.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: step %d/%d (%s): %w", ErrStoreUnavailable, i+1, len(b.steps), s, err)
		}
		if err := s.run(ctx, store); err != nil {
			return fmt.Errorf("%w: step %d/%d (%s): %w", ErrStoreUnavailable, i+1, len(b.steps), s, err)
		}
	}
	return nil
}

func (s step) run(ctx context.Context, store Store) error {
	switch s.kind {
	case stepPutAccount:
		id, err := store.PutAccount(ctx, s.account)
		if err != nil {
			return err
		}
		s.account.AssignID(id)
	case stepPutTransaction:
		accountID, ok := s.account.ID().Get()
		if !ok {
			return fmt.Errorf("account %q has no id", s.account.Name)
		}
		id, err := store.PutTransaction(ctx, s.tx, accountID)
		if err != nil {
			return err
		}
		s.tx.AssignID(id)
	case stepDeleteTransaction:
		return store.DeleteTransaction(ctx, s.tx.ID().Int64())
	}
	return nil
}
