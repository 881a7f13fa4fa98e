package worker

import (
	"context"
	"fmt"
	"time"

	"bujit/internal/amqp"
	"bujit/internal/cache"
	"bujit/internal/log"
	"bujit/internal/sheets"
)

const (
	exportedCacheSize = 10000
	exportedCacheTTL  = 24 * time.Hour
)

// ExportWorker mirrors committed ledger operations into a spreadsheet.
type ExportWorker struct {
	exporter sheets.TransactionExporter
	// exported maps transaction IDs to the range they were written to, so a
	// redelivered message does not append the same rows twice.
	exported *cache.LRUCache[int64, string]
	logger   *log.Logger
}

func NewExportWorker(exporter sheets.TransactionExporter) *ExportWorker {
	return &ExportWorker{
		exporter: exporter,
		exported: cache.NewLRUCache[int64, string](exportedCacheSize, exportedCacheTTL),
		logger:   log.ForComponent(log.ComponentWorker),
	}
}

// Exported exposes the dedup cache for periodic cleanup.
func (w *ExportWorker) Exported() cache.Cleaner {
	return w.exported
}

// HandleLedgerEvent appends one row per entry of msg. A returned error makes
// the consumer requeue the message.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	if msg == nil {
		return nil
	}
	rows := RowsFromMessage(msg)
	if len(rows) == 0 {
		w.logger.DebugContext(ctx, "Ledger event has no entries, skipping", log.FieldOperation, msg.Op)
		return nil
	}

	pending := rows[:0:0]
	for _, r := range rows {
		if _, done := w.exported.Get(r.TransactionID); done && r.TransactionID != 0 {
			continue
		}
		pending = append(pending, r)
	}
	if len(pending) == 0 {
		w.logger.InfoContext(ctx, "Ledger event already exported, skipping",
			log.FieldOperation, msg.Op,
			"rows", len(rows))
		return nil
	}
	rows = pending

	ref, err := w.exporter.AppendRows(ctx, rows)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to export ledger event",
			log.FieldOperation, msg.Op,
			"rows", len(rows),
			log.FieldError, err)
		return fmt.Errorf("export %s event: %w", msg.Op, err)
	}
	for _, r := range rows {
		if r.TransactionID != 0 {
			w.exported.Set(r.TransactionID, ref)
		}
	}

	w.logger.InfoContext(ctx, "Exported ledger event",
		log.FieldOperation, msg.Op,
		"rows", len(rows),
		"range", ref)
	return nil
}

// RowsFromMessage lays out the entries of msg in the order they were
// recorded.
func RowsFromMessage(msg *amqp.LedgerEventMessage) []sheets.Row {
	if msg == nil {
		return nil
	}
	rows := make([]sheets.Row, 0, len(msg.Entries))
	for _, e := range msg.Entries {
		date := e.Date
		if date.IsZero() {
			date = msg.Timestamp
		}
		rows = append(rows, sheets.Row{
			Date:          date,
			Account:       e.AccountName,
			Kind:          e.Kind,
			Amount:        e.Amount,
			Label:         e.Label,
			Counterparty:  e.Counterparty,
			Balance:       e.Balance,
			TransactionID: e.TransactionID,
		})
	}
	return rows
}
