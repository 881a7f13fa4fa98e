package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bujit/internal/core"
	"bujit/internal/log"
)

// Mutation is the change applied to one account. Credit kinds add Amount to
// the balance, the others subtract it.
type Mutation struct {
	Amount  core.Money
	Kind    core.Kind
	Options core.TxOptions
}

// Mutations maps account IDs to the change each one receives.
type Mutations map[int64]Mutation

// Option configures a Service.
type Option func(*Service)

// WithAtomicCommits runs every batch inside Transactor.WithinTx when the
// store supports it.
func WithAtomicCommits(on bool) Option {
	return func(s *Service) { s.atomic = on }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithIDGenerator sets the client-side identifier generator used when
// creating accounts.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.generateID = gen }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithListener(l Listener) Option {
	return func(s *Service) { s.listeners = append(s.listeners, l) }
}

// Service orchestrates ledger operations. Operations run one at a time.
type Service struct {
	store Store
	repo  *Repository

	mu sync.Mutex // serialises operations

	atomic     bool
	generateID func() string
	now        func() time.Time
	logger     *log.Logger

	lmu       sync.RWMutex
	listeners []Listener
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		repo:       NewRepository(),
		generateID: uuid.NewString,
		now:        time.Now,
		logger:     log.ForComponent(log.ComponentLedger),
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, ok := store.(Transactor); s.atomic && !ok {
		s.logger.Warn("Atomic commits requested but the store cannot run transactions, falling back to ordered writes")
		s.atomic = false
	}
	return s
}

// Load fills the in-memory ledger from the store. Call it once at startup.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Load(ctx, s.store); err != nil {
		s.logger.ErrorContext(ctx, "Failed to load ledger", log.FieldError, err)
		return err
	}
	s.logger.InfoContext(ctx, "Ledger loaded", "accounts", s.repo.Len(), "atomic_commits", s.atomic)
	return nil
}

// Close clears the in-memory ledger. The store is not closed.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repo.Clear()
}

func (s *Service) Loaded() bool { return s.repo.Loaded() }

// Subscribe registers a completion listener.
func (s *Service) Subscribe(l Listener) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Accounts returns the committed accounts in creation order.
func (s *Service) Accounts() []*core.Account { return s.repo.Accounts() }

func (s *Service) Account(id int64) (*core.Account, error) {
	a, ok := s.repo.Get(id)
	if !ok {
		return nil, fmt.Errorf("account %d: %w", id, ErrAccountNotFound)
	}
	return a, nil
}

// History returns the account's retained transactions, newest first.
func (s *Service) History(id int64) ([]*core.Transaction, error) {
	a, err := s.Account(id)
	if err != nil {
		return nil, err
	}
	return a.History(), nil
}

// CreateAccount persists a new account with an opening balance and payout
// percent. No transaction is recorded for the opening balance.
func (s *Service) CreateAccount(ctx context.Context, name string, balance core.Money, percent decimal.Decimal) (*core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.repo.Loaded() {
		return nil, ErrNotLoaded
	}

	acc := core.NewAccount(name, balance, percent)
	acc.ClientRef = s.generateID()
	if err := acc.Validate(); err != nil {
		return nil, err
	}

	var b Batch
	b.PutAccount(acc)
	if err := s.commit(ctx, &b); err != nil {
		return nil, s.fail(ctx, OpCreateAccount, err)
	}
	s.repo.Commit(acc)

	s.logger.InfoContext(ctx, "Account created", log.NewFields().
		WithOperation(string(OpCreateAccount)).
		WithAccount(acc.ID().Int64(), acc.Name).
		WithAmount(balance).ToSlice()...)
	s.emit(ctx, Completion{Op: OpCreateAccount})
	return acc.Clone(), nil
}

// DeleteAccount removes the account and its whole transaction history.
// Unknown IDs are a no-op.
func (s *Service) DeleteAccount(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.repo.Loaded() {
		return ErrNotLoaded
	}

	if _, ok := s.repo.Get(id); !ok {
		s.skipUnknown(ctx, OpDeleteAccount, id)
		s.emit(ctx, Completion{Op: OpDeleteAccount})
		return nil
	}
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return s.fail(ctx, OpDeleteAccount, fmt.Errorf("%w: delete account %d: %w", ErrStoreUnavailable, id, err))
	}
	s.repo.Remove(id)

	s.logger.InfoContext(ctx, "Account deleted", log.FieldAccountID, id)
	s.emit(ctx, Completion{Op: OpDeleteAccount})
	return nil
}

// RenameOrReweight updates an account's name and payout percent.
// Unknown IDs are a no-op.
func (s *Service) RenameOrReweight(ctx context.Context, id int64, name string, percent decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.repo.Loaded() {
		return ErrNotLoaded
	}

	acc, ok := s.repo.Get(id)
	if !ok {
		s.skipUnknown(ctx, OpRenameOrReweight, id)
		s.emit(ctx, Completion{Op: OpRenameOrReweight})
		return nil
	}
	acc.Rename(name)
	acc.SetPercent(percent)
	if err := acc.Validate(); err != nil {
		return err
	}

	var b Batch
	b.PutAccount(acc)
	if err := s.commit(ctx, &b); err != nil {
		return s.fail(ctx, OpRenameOrReweight, err)
	}
	s.repo.Commit(acc)
	s.emit(ctx, Completion{Op: OpRenameOrReweight})
	return nil
}

// Deposit credits amount to one account.
func (s *Service) Deposit(ctx context.Context, id int64, amount core.Money, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(ctx, OpDeposit, Mutations{
		id: {Amount: amount, Kind: core.Deposit, Options: core.TxOptions{Label: label}},
	})
}

// Withdraw debits amount from one account. Funds are not checked here.
func (s *Service) Withdraw(ctx context.Context, id int64, amount core.Money, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(ctx, OpWithdraw, Mutations{
		id: {Amount: amount, Kind: core.Withdrawal, Options: core.TxOptions{Label: label}},
	})
}

// Transfer moves amount from source to target, recording a transfer-out and
// a transfer-in that name each other. When source and target are the same
// account the second entry replaces the first, leaving a single transfer-in;
// callers are expected to reject that case.
func (s *Service) Transfer(ctx context.Context, sourceID, targetID int64, amount core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sourceName, targetName string
	if a, ok := s.repo.Get(sourceID); ok {
		sourceName = a.Name
	}
	if a, ok := s.repo.Get(targetID); ok {
		targetName = a.Name
	}

	muts := Mutations{}
	muts[sourceID] = Mutation{Amount: amount, Kind: core.TransferOut, Options: core.TxOptions{Counterparty: targetName}}
	muts[targetID] = Mutation{Amount: amount, Kind: core.TransferIn, Options: core.TxOptions{Counterparty: sourceName}}
	return s.apply(ctx, OpTransfer, muts)
}

// Payout credits every account its percent of total, including accounts at
// 0%. Percentages are not required to add up to 100.
func (s *Service) Payout(ctx context.Context, total core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	muts := Mutations{}
	for _, a := range s.repo.Accounts() {
		muts[a.ID().Int64()] = Mutation{
			Amount:  a.PercentOf(total),
			Kind:    core.Payout,
			Options: core.TxOptions{Label: core.PayoutLabel},
		}
	}
	return s.apply(ctx, OpPayout, muts)
}

// Apply runs an arbitrary set of mutations as one logical operation.
func (s *Service) Apply(ctx context.Context, muts Mutations) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(ctx, OpApply, muts)
}

func (s *Service) apply(ctx context.Context, op Op, muts Mutations) error {
	if !s.repo.Loaded() {
		return ErrNotLoaded
	}
	for id, m := range muts {
		if !m.Kind.IsValid() {
			return fmt.Errorf("%s: account %d: invalid kind %q", op, id, m.Kind)
		}
	}

	var (
		b       Batch
		staged  []*core.Account
		touched = make(map[int64]bool, len(muts))
		ts      = s.now()
	)
	for _, acc := range s.repo.Accounts() {
		id := acc.ID().Int64()
		m, ok := muts[id]
		if !ok {
			continue
		}
		touched[id] = true

		if m.Kind.IsCredit() {
			acc.Credit(m.Amount)
		} else {
			acc.Debit(m.Amount)
		}
		opts := m.Options
		if opts.Timestamp.IsZero() {
			opts.Timestamp = ts
		}
		tx, evicted := acc.RecordTransaction(m.Amount, m.Kind, opts)

		b.PutAccount(acc)
		b.PutTransaction(tx, acc)
		b.DeleteTransaction(evicted)
		staged = append(staged, acc)
	}
	for id := range muts {
		if !touched[id] {
			s.skipUnknown(ctx, op, id)
		}
	}

	if err := s.commit(ctx, &b); err != nil {
		return s.fail(ctx, op, err)
	}
	s.repo.Commit(staged...)

	entries := make([]Entry, 0, len(staged))
	for _, acc := range staged {
		entries = append(entries, Entry{Account: acc.Clone(), Transaction: acc.LatestTransaction()})
		s.logger.DebugContext(ctx, "Transaction recorded", log.NewFields().
			WithOperation(string(op)).
			WithAccount(acc.ID().Int64(), acc.Name).
			WithTransaction(acc.LatestTransaction()).ToSlice()...)
	}
	s.logger.InfoContext(ctx, "Ledger operation committed",
		log.FieldOperation, op,
		"accounts", len(staged),
		"writes", b.Len())
	s.emit(ctx, Completion{Op: op, Entries: entries})
	return nil
}

func (s *Service) commit(ctx context.Context, b *Batch) error {
	if b.Len() == 0 {
		return nil
	}
	t, ok := s.store.(Transactor)
	if !s.atomic || !ok {
		return b.Commit(ctx, s.store)
	}
	err := t.WithinTx(ctx, func(st Store) error { return b.Commit(ctx, st) })
	if err != nil && !errors.Is(err, ErrStoreUnavailable) {
		err = fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}

func (s *Service) fail(ctx context.Context, op Op, err error) error {
	err = fmt.Errorf("%s: %w", op, err)
	s.logger.ErrorContext(ctx, "Ledger operation failed",
		log.FieldOperation, op,
		log.FieldError, err,
		"atomic_commits", s.atomic)
	s.emit(ctx, Completion{Op: op, Err: err})
	return err
}

func (s *Service) skipUnknown(ctx context.Context, op Op, id int64) {
	s.logger.DebugContext(ctx, "Skipping unknown account", log.FieldOperation, op, log.FieldAccountID, id)
}

func (s *Service) emit(ctx context.Context, c Completion) {
	c.At = s.now()
	c.Accounts = s.repo.Accounts()

	s.lmu.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	s.lmu.RUnlock()
	for _, l := range listeners {
		l(ctx, c)
	}
}
