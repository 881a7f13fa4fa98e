package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDIsSetOnce(t *testing.T) {
	var id ID
	assert.False(t, id.IsSet())
	assert.Equal(t, "<unset>", id.String())

	assert.True(t, id.Set(7))
	assert.False(t, id.Set(9), "second assignment must be ignored")

	v, ok := id.Get()
	assert.True(t, ok)
	assert.Equal(t, int64(7), v)
}

func TestCreditDebitTracksCumulativeSum(t *testing.T) {
	acc := NewAccount("Save", MoneyFromCents(0), decimal.Zero)
	credits := []string{"10.10", "0.20", "99.99"}
	debits := []string{"5.00", "200.00", "0.01"}

	for _, c := range credits {
		acc.Credit(MustParseMoney(c))
	}
	for _, d := range debits {
		acc.Debit(MustParseMoney(d))
	}

	want := MustParseMoney("-94.72")
	assert.True(t, want.Equal(acc.Balance()), "balance %s, want %s", acc.Balance(), want)
}

func TestRecordTransactionPrependsAndEvicts(t *testing.T) {
	acc := NewAccount("Save", MustParseMoney("20.00"), decimal.Zero)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var first *Transaction
	for i := 0; i < HistoryCapacity; i++ {
		tx, evicted := acc.RecordTransaction(MoneyFromCents(int64(i+1)), Withdrawal, TxOptions{Timestamp: base.Add(time.Duration(i) * time.Minute)})
		require.Nil(t, evicted)
		if i == 0 {
			first = tx
		}
	}
	require.Equal(t, HistoryCapacity, acc.HistoryLen())

	tx, evicted := acc.RecordTransaction(MoneyFromCents(11), Withdrawal, TxOptions{Timestamp: base.Add(time.Hour)})
	require.NotNil(t, evicted)
	assert.Same(t, first, evicted)
	assert.Equal(t, HistoryCapacity, acc.HistoryLen())
	assert.Same(t, tx, acc.LatestTransaction())

	hist := acc.History()
	for i := 0; i < len(hist)-1; i++ {
		assert.True(t, hist[i].Timestamp().After(hist[i+1].Timestamp()), "history must be newest first")
	}
	assert.Equal(t, int64(2), hist[len(hist)-1].Amount().Cents())
}

func TestHistoryNeverExceedsCapacity(t *testing.T) {
	var h History
	for i := 0; i < 57; i++ {
		h.Push(NewTransaction(MoneyFromCents(int64(i)), Deposit, TxOptions{}))
		require.LessOrEqual(t, h.Len(), HistoryCapacity)
	}
	items := h.Items()
	require.Len(t, items, HistoryCapacity)
	for i, tx := range items {
		assert.Equal(t, int64(56-i), tx.Amount().Cents())
	}
	assert.Equal(t, int64(47), h.Oldest().Amount().Cents())
	assert.Nil(t, h.At(HistoryCapacity))
}

func TestCounterpartyOnlyForTransfers(t *testing.T) {
	out := NewTransaction(MoneyFromCents(100), TransferOut, TxOptions{Counterparty: "B"})
	dep := NewTransaction(MoneyFromCents(100), Deposit, TxOptions{Counterparty: "B", Label: "bonus"})

	assert.Equal(t, "B", out.Counterparty())
	assert.Empty(t, dep.Counterparty())
	assert.Equal(t, "bonus", dep.Label())
	assert.Equal(t, time.UTC, dep.Timestamp().Location())
}

func TestSignedAmount(t *testing.T) {
	amt := MustParseMoney("4.20")
	for _, k := range Kinds() {
		tx := NewTransaction(amt, k, TxOptions{})
		if k.IsCredit() {
			assert.Equal(t, "4.20", tx.SignedAmount().String(), k)
		} else {
			assert.Equal(t, "-4.20", tx.SignedAmount().String(), k)
		}
	}
}

func TestRestoreAccountCapsHistory(t *testing.T) {
	var hist []*Transaction
	for i := 15; i > 0; i-- { // newest first
		hist = append(hist, RestoreTransaction(int64(i), MoneyFromCents(int64(i)), Deposit, TxOptions{}))
	}
	acc := RestoreAccount(3, "ref", "Rent", MustParseMoney("1.00"), decimal.NewFromInt(10), hist)

	require.Equal(t, HistoryCapacity, acc.HistoryLen())
	assert.Equal(t, int64(15), acc.History()[0].ID().Int64())
	assert.Equal(t, int64(6), acc.History()[HistoryCapacity-1].ID().Int64())
	assert.False(t, acc.AssignID(4))
	assert.Equal(t, int64(3), acc.ID().Int64())
}

func TestCloneIsIndependent(t *testing.T) {
	acc := NewAccount("A", MustParseMoney("100.00"), decimal.Zero)
	acc.RecordTransaction(MustParseMoney("1.00"), Deposit, TxOptions{})

	c := acc.Clone()
	c.Debit(MustParseMoney("30.00"))
	c.RecordTransaction(MustParseMoney("30.00"), TransferOut, TxOptions{Counterparty: "B"})
	c.Name = "renamed"

	assert.Equal(t, "100.00", acc.Balance().String())
	assert.Equal(t, 1, acc.HistoryLen())
	assert.Equal(t, "A", acc.Name)
	assert.Equal(t, 2, c.HistoryLen())
}

func TestAccountValidate(t *testing.T) {
	good := NewAccount("Rent", MoneyFromCents(0), decimal.NewFromInt(100))
	require.NoError(t, good.Validate())

	assert.ErrorIs(t, NewAccount("  ", MoneyFromCents(0), decimal.Zero).Validate(), ErrEmptyName)
	assert.ErrorIs(t, NewAccount("x", MoneyFromCents(0), decimal.NewFromInt(101)).Validate(), ErrInvalidPercent)
	assert.ErrorIs(t, NewAccount("x", MoneyFromCents(0), decimal.NewFromInt(-1)).Validate(), ErrInvalidPercent)
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("add")
	assert.Error(t, err)
}
