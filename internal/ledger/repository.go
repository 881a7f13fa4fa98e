package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"bujit/internal/core"
)

// Repository is the in-memory record of committed accounts. It is filled
// once from the store, updated only with committed state, and cleared on
// teardown. Callers always receive clones.
type Repository struct {
	mu       sync.RWMutex
	accounts []*core.Account
	loaded   bool
}

func NewRepository() *Repository {
	return &Repository{}
}

// Load replaces the contents with the store's accounts, rebuilding each
// history newest first and capped to core.HistoryCapacity.
func (r *Repository) Load(ctx context.Context, store Store) error {
	accounts, txs, err := store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: load ledger: %w", ErrStoreUnavailable, err)
	}

	rebuilt := make([]*core.Account, 0, len(accounts))
	for _, a := range accounts {
		id := a.ID().Int64()
		rebuilt = append(rebuilt, core.RestoreAccount(id, a.ClientRef, a.Name, a.Balance(), a.Percent, newestFirst(txs[id])))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = rebuilt
	r.loaded = true
	return nil
}

// newestFirst orders by timestamp then ID, both descending, so entries
// recorded in the same instant keep insertion order.
func newestFirst(txs []*core.Transaction) []*core.Transaction {
	out := append([]*core.Transaction(nil), txs...)
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].Timestamp(), out[j].Timestamp()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i].ID().Int64() > out[j].ID().Int64()
	})
	return out
}

func (r *Repository) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// Accounts returns clones of every account in creation order.
func (r *Repository) Accounts() []*core.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*core.Account, len(r.accounts))
	for i, a := range r.accounts {
		out[i] = a.Clone()
	}
	return out
}

// Get returns a clone of the account with the given ID.
func (r *Repository) Get(id int64) (*core.Account, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(id); i >= 0 {
		return r.accounts[i].Clone(), true
	}
	return nil, false
}

func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}

// Commit publishes staged accounts. Known IDs are replaced in place, new
// ones are appended.
func (r *Repository) Commit(staged ...*core.Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range staged {
		if i := r.indexOf(a.ID().Int64()); i >= 0 {
			r.accounts[i] = a
			continue
		}
		r.accounts = append(r.accounts, a)
	}
}

// Remove drops the account with the given ID.
func (r *Repository) Remove(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	r.accounts = append(r.accounts[:i], r.accounts[i+1:]...)
	return true
}

// Clear forgets everything; a later Load starts over.
func (r *Repository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = nil
	r.loaded = false
}

func (r *Repository) indexOf(id int64) int {
	for i, a := range r.accounts {
		if v, ok := a.ID().Get(); ok && v == id {
			return i
		}
	}
	return -1
}
