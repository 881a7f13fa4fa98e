// Package memory is a process-local ledger store used for development and
// tests. Nothing survives a restart.
package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"bujit/internal/core"
	"bujit/internal/ledger"
)

var ErrUnknownAccount = errors.New("unknown account")

type accountRow struct {
	clientRef string
	name      string
	balance   core.Money
	percent   decimal.Decimal
}

type txRow struct {
	accountID    int64
	amount       core.Money
	kind         core.Kind
	label        string
	counterparty string
	date         time.Time
}

type Store struct {
	mu       sync.Mutex
	nextAcc  int64
	nextTx   int64
	accounts map[int64]accountRow
	txs      map[int64]txRow
}

var (
	_ ledger.Store      = (*Store)(nil)
	_ ledger.Transactor = (*Store)(nil)
)

func New() *Store {
	return &Store{
		accounts: map[int64]accountRow{},
		txs:      map[int64]txRow{},
	}
}

func (s *Store) PutAccount(_ context.Context, a *core.Account) (int64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	row := accountRow{clientRef: a.ClientRef, name: a.Name, balance: a.Balance(), percent: a.Percent}
	if id, ok := a.ID().Get(); ok {
		if _, exists := s.accounts[id]; !exists {
			return 0, fmt.Errorf("update account %d: %w", id, ErrUnknownAccount)
		}
		s.accounts[id] = row
		return id, nil
	}
	s.nextAcc++
	s.accounts[s.nextAcc] = row
	return s.nextAcc, nil
}

// DeleteAccount removes the account and its transactions. Missing IDs are
// not an error.
func (s *Store) DeleteAccount(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, id)
	for txID, tx := range s.txs {
		if tx.accountID == id {
			delete(s.txs, txID)
		}
	}
	return nil
}

func (s *Store) PutTransaction(_ context.Context, tx *core.Transaction, accountID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[accountID]; !ok {
		return 0, fmt.Errorf("insert transaction for account %d: %w", accountID, ErrUnknownAccount)
	}

	row := txRow{
		accountID:    accountID,
		amount:       tx.Amount(),
		kind:         tx.Kind(),
		label:        tx.Label(),
		counterparty: tx.Counterparty(),
		date:         tx.Timestamp(),
	}
	if id, ok := tx.ID().Get(); ok {
		s.txs[id] = row
		return id, nil
	}
	s.nextTx++
	s.txs[s.nextTx] = row
	return s.nextTx, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.txs, id)
	return nil
}

// LoadAll returns accounts in ID order and every stored transaction.
func (s *Store) LoadAll(ctx context.Context) ([]*core.Account, map[int64][]*core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	accounts := make([]*core.Account, 0, len(ids))
	for _, id := range ids {
		r := s.accounts[id]
		accounts = append(accounts, core.RestoreAccount(id, r.clientRef, r.name, r.balance, r.percent, nil))
	}

	txs := make(map[int64][]*core.Transaction)
	for id, r := range s.txs {
		txs[r.accountID] = append(txs[r.accountID], core.RestoreTransaction(id, r.amount, r.kind, core.TxOptions{
			Label:        r.label,
			Counterparty: r.counterparty,
			Timestamp:    r.date,
		}))
	}
	return accounts, txs, nil
}

// WithinTx runs fn against the store and restores the previous contents if
// fn fails. Calls must not overlap.
func (s *Store) WithinTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	snapshot := struct {
		nextAcc, nextTx int64
		accounts        map[int64]accountRow
		txs             map[int64]txRow
	}{s.nextAcc, s.nextTx, maps.Clone(s.accounts), maps.Clone(s.txs)}
	s.mu.Unlock()

	err := fn(s)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.mu.Lock()
		s.nextAcc, s.nextTx = snapshot.nextAcc, snapshot.nextTx
		s.accounts, s.txs = snapshot.accounts, snapshot.txs
		s.mu.Unlock()
	}
	return err
}

// TransactionCount reports how many transactions are stored for an account.
func (s *Store) TransactionCount(accountID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, tx := range s.txs {
		if tx.accountID == accountID {
			n++
		}
	}
	return n
}

func (s *Store) Close() error { return nil }
