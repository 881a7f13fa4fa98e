package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bujit/internal/amqp"
	"bujit/internal/core"
	"bujit/internal/ledger"
	"bujit/internal/sheets"
	sheetsmem "bujit/internal/sheets/memory"
	"bujit/internal/storage/memory"
)

type failingExporter struct{ err error }

func (f failingExporter) AppendRows(context.Context, []sheets.Row) (string, error) {
	return "", f.err
}

func payoutMessage() *amqp.LedgerEventMessage {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &amqp.LedgerEventMessage{
		Op:        "payout",
		Timestamp: at,
		Entries: []amqp.LedgerEntry{
			{AccountID: 1, AccountName: "Bills", TransactionID: 7, Kind: "payout", Amount: "60.00", Label: "Paid", Balance: "60.00", Date: at},
			{AccountID: 2, AccountName: "Fun", TransactionID: 8, Kind: "payout", Amount: "40.00", Label: "Paid", Balance: "40.00"},
		},
	}
}

func TestRowsFromMessage(t *testing.T) {
	msg := payoutMessage()
	rows := RowsFromMessage(msg)

	require.Len(t, rows, 2)
	assert.Equal(t, "Bills", rows[0].Account)
	assert.Equal(t, int64(7), rows[0].TransactionID)
	assert.Equal(t, "60.00", rows[0].Balance)
	assert.True(t, rows[1].Date.Equal(msg.Timestamp), "missing entry date falls back to the event time")
	assert.Nil(t, RowsFromMessage(nil))
}

func TestExportWorker_HandleLedgerEvent(t *testing.T) {
	exp := sheetsmem.New()
	w := NewExportWorker(exp)

	require.NoError(t, w.HandleLedgerEvent(context.Background(), payoutMessage()))
	require.NoError(t, w.HandleLedgerEvent(context.Background(), &amqp.LedgerEventMessage{Op: "create-account"}))

	rows := exp.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "Fun", rows[1].Account)
}

func TestExportWorker_ExporterFailureIsReturned(t *testing.T) {
	boom := errors.New("quota exceeded")
	w := NewExportWorker(failingExporter{err: boom})

	err := w.HandleLedgerEvent(context.Background(), payoutMessage())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "payout")
}

type countingExporter struct {
	calls int
	rows  int
	fail  bool
}

func (c *countingExporter) AppendRows(_ context.Context, rows []sheets.Row) (string, error) {
	c.calls++
	if c.fail {
		return "", errors.New("unavailable")
	}
	c.rows += len(rows)
	return "Ledger!A2:H3", nil
}

func TestExportWorker_RedeliveryIsNotExportedTwice(t *testing.T) {
	exp := &countingExporter{}
	w := NewExportWorker(exp)
	ctx := context.Background()

	require.NoError(t, w.HandleLedgerEvent(ctx, payoutMessage()))
	require.NoError(t, w.HandleLedgerEvent(ctx, payoutMessage()))

	assert.Equal(t, 1, exp.calls)
	assert.Equal(t, 2, exp.rows)

	// Only the unseen entry of a partially exported event is written.
	msg := payoutMessage()
	msg.Entries = append(msg.Entries, amqp.LedgerEntry{AccountID: 3, AccountName: "Rent", TransactionID: 9, Kind: "payout", Amount: "1.00"})
	require.NoError(t, w.HandleLedgerEvent(ctx, msg))
	assert.Equal(t, 2, exp.calls)
	assert.Equal(t, 3, exp.rows)
}

func TestExportWorker_FailedExportIsRetried(t *testing.T) {
	exp := &countingExporter{fail: true}
	w := NewExportWorker(exp)
	ctx := context.Background()

	require.Error(t, w.HandleLedgerEvent(ctx, payoutMessage()))
	exp.fail = false
	require.NoError(t, w.HandleLedgerEvent(ctx, payoutMessage()))

	assert.Equal(t, 2, exp.calls)
	assert.Equal(t, 2, exp.rows)
	assert.Zero(t, w.Exported().CleanExpired())
}

// A ledger operation flows through the message mapping into sheet rows.
func TestExportWorker_EndToEndFromLedger(t *testing.T) {
	ctx := context.Background()
	var events []*amqp.LedgerEventMessage
	svc := ledger.NewService(memory.New(), ledger.WithListener(func(_ context.Context, c ledger.Completion) {
		if msg := amqp.NewLedgerEventMessage(c); msg != nil {
			events = append(events, msg)
		}
	}))
	require.NoError(t, svc.Load(ctx))

	checking, err := svc.CreateAccount(ctx, "Checking", core.MustParseMoney("100.00"), decimal.Zero)
	require.NoError(t, err)
	savings, err := svc.CreateAccount(ctx, "Savings", core.MoneyFromCents(0), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, svc.Transfer(ctx, checking.ID().Int64(), savings.ID().Int64(), core.MustParseMoney("30.00")))

	require.Len(t, events, 1, "only operations that record transactions are announced")

	exp := sheetsmem.New()
	require.NoError(t, NewExportWorker(exp).HandleLedgerEvent(ctx, events[0]))

	rows := exp.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "transfer-out", rows[0].Kind)
	assert.Equal(t, "Savings", rows[0].Counterparty)
	assert.Equal(t, "70.00", rows[0].Balance)
	assert.Equal(t, "transfer-in", rows[1].Kind)
	assert.Equal(t, "30.00", rows[1].Balance)
}
