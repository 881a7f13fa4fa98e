// Package storage persists the ledger in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"bujit/internal/core"
	"bujit/internal/ledger"
	"bujit/internal/log"

	_ "modernc.org/sqlite"
)

const dsnPragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// Store is the SQLite ledger store. It supports atomic batches through
// WithinTx.
type Store struct {
	db *sql.DB
	queryStore
	logger *log.Logger
}

var (
	_ ledger.Store      = (*Store)(nil)
	_ ledger.Transactor = (*Store)(nil)
)

// Open creates the database file if needed, migrates it and returns a ready
// store.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := dbPath + dsnPragmas
	logger := log.ForComponent(log.ComponentStorage)

	version, err := RunMigrations(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer; a second connection would only contend for the file lock.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.InfoContext(ctx, "SQLite store ready", "path", dbPath, "schema_version", version)
	return &Store{
		db:         db,
		queryStore: queryStore{q: New(db)},
		logger:     logger,
	}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DeleteAccount removes the account and its transactions in one transaction.
func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	return s.WithinTx(ctx, func(st ledger.Store) error {
		return st.DeleteAccount(ctx, id)
	})
}

// WithinTx runs fn inside a database transaction, committing only when fn
// returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(ledger.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(queryStore{q: s.q.WithTx(tx)}); err != nil {
		s.logger.WarnContext(ctx, "Rolling back ledger transaction", log.FieldError, err)
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// TransactionCount reports how many transactions are stored for an account.
func (s *Store) TransactionCount(ctx context.Context, accountID int64) (int64, error) {
	return s.q.CountTransactions(ctx, accountID)
}

// queryStore implements ledger.Store over a Queries bound to either the pool
// or a single transaction.
type queryStore struct {
	q *Queries
}

func (s queryStore) PutAccount(ctx context.Context, a *core.Account) (int64, error) {
	balance, err := a.Balance().ExactCents()
	if err != nil {
		return 0, fmt.Errorf("account %q balance: %w", a.Name, err)
	}
	if id, ok := a.ID().Get(); ok {
		n, err := s.q.UpdateAccount(ctx, UpdateAccountParams{
			Name:         a.Name,
			BalanceCents: balance,
			Percent:      a.Percent.String(),
			ID:           id,
		})
		if err != nil {
			return 0, fmt.Errorf("update account %d: %w", id, err)
		}
		if n == 0 {
			return 0, fmt.Errorf("update account %d: %w", id, ledger.ErrAccountNotFound)
		}
		return id, nil
	}

	id, err := s.q.InsertAccount(ctx, InsertAccountParams{
		ClientRef:    a.ClientRef,
		Name:         a.Name,
		BalanceCents: balance,
		Percent:      a.Percent.String(),
	})
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}
	return id, nil
}

func (s queryStore) DeleteAccount(ctx context.Context, id int64) error {
	if err := s.q.DeleteAccountTransactions(ctx, id); err != nil {
		return fmt.Errorf("delete transactions of account %d: %w", id, err)
	}
	if err := s.q.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	return nil
}

func (s queryStore) PutTransaction(ctx context.Context, tx *core.Transaction, accountID int64) (int64, error) {
	name := nullString(tx.Label())
	other := nullString(tx.Counterparty())
	date := tx.Timestamp().UnixNano()
	amount, err := tx.Amount().ExactCents()
	if err != nil {
		return 0, fmt.Errorf("transaction amount for account %d: %w", accountID, err)
	}

	if id, ok := tx.ID().Get(); ok {
		n, err := s.q.UpdateTransaction(ctx, UpdateTransactionParams{
			AccountID:   accountID,
			AmountCents: amount,
			Type:        string(tx.Kind()),
			Name:        name,
			Other:       other,
			Date:        date,
			ID:          id,
		})
		if err != nil {
			return 0, fmt.Errorf("update transaction %d: %w", id, err)
		}
		if n == 0 {
			return 0, fmt.Errorf("update transaction %d: %w", id, sql.ErrNoRows)
		}
		return id, nil
	}

	id, err := s.q.InsertTransaction(ctx, InsertTransactionParams{
		AccountID:   accountID,
		AmountCents: amount,
		Type:        string(tx.Kind()),
		Name:        name,
		Other:       other,
		Date:        date,
	})
	if err != nil {
		return 0, fmt.Errorf("insert transaction for account %d: %w", accountID, err)
	}
	return id, nil
}

func (s queryStore) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.q.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}

// LoadAll reads every account and only the newest core.HistoryCapacity
// transactions of each.
func (s queryStore) LoadAll(ctx context.Context) ([]*core.Account, map[int64][]*core.Transaction, error) {
	rows, err := s.q.ListAccounts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list accounts: %w", err)
	}
	accounts := make([]*core.Account, 0, len(rows))
	for _, r := range rows {
		percent, err := decimal.NewFromString(r.Percent)
		if err != nil {
			return nil, nil, fmt.Errorf("account %d: bad percent %q: %w", r.ID, r.Percent, err)
		}
		accounts = append(accounts, core.RestoreAccount(r.ID, r.ClientRef, r.Name, core.MoneyFromCents(r.BalanceCents), percent, nil))
	}

	txRows, err := s.q.ListRecentTransactions(ctx, core.HistoryCapacity)
	if err != nil {
		return nil, nil, fmt.Errorf("list transactions: %w", err)
	}
	txs := make(map[int64][]*core.Transaction, len(accounts))
	for _, r := range txRows {
		kind, err := core.ParseKind(r.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("transaction %d: %w", r.ID, err)
		}
		txs[r.AccountID] = append(txs[r.AccountID], core.RestoreTransaction(r.ID, core.MoneyFromCents(r.AmountCents), kind, core.TxOptions{
			Label:        r.Name.String,
			Counterparty: r.Other.String,
			Timestamp:    time.Unix(0, r.Date).UTC(),
		}))
	}
	return accounts, txs, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
