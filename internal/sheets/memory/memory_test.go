package memory

import (
	"context"
	"testing"
	"time"

	"bujit/internal/sheets"
)

func TestExporter_AppendRows(t *testing.T) {
	e := New()
	ctx := context.Background()

	ref, err := e.AppendRows(ctx, nil)
	if err != nil || ref != "" {
		t.Fatalf("empty append: ref=%q err=%v", ref, err)
	}

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	ref, err = e.AppendRows(ctx, []sheets.Row{
		{Date: at, Account: "Checking", Kind: "deposit", Amount: "5.00", Balance: "5.00", TransactionID: 1},
		{Date: at, Account: "Savings", Kind: "payout", Amount: "1.00", Label: "Paid", Balance: "1.00", TransactionID: 2},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "mem!A2:H3" {
		t.Fatalf("ref = %q", ref)
	}

	ref, _ = e.AppendRows(ctx, []sheets.Row{{Date: at, Account: "Checking", TransactionID: 3}})
	if ref != "mem!A4:H4" {
		t.Fatalf("ref = %q", ref)
	}

	rows := e.Rows()
	if len(rows) != 3 || rows[1].Label != "Paid" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if got := rows[0].Values()[0]; got != "2024-01-02 03:04:05" {
		t.Fatalf("date cell = %v", got)
	}
}
