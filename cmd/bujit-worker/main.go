package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"bujit/internal/amqp"
	"bujit/internal/cache"
	"bujit/internal/cli"
	"bujit/internal/config"
	"bujit/internal/log"
	"bujit/internal/sheets"
	gsheet "bujit/internal/sheets/google"
	sheetsmem "bujit/internal/sheets/memory"
	"bujit/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig((*config.Config).ValidateWorker)
	if err != nil {
		cli.Exit(err)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext(logger)
	defer stop()

	exporter, err := newExporter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	exportWorker := worker.NewExportWorker(exporter)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Consuming ledger events", "queue", cfg.AMQPQueue, "prefetch", cfg.WorkerPrefetch)
		err := client.ConsumeLedgerEvents(gctx, cfg.WorkerPrefetch, exportWorker.HandleLedgerEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return cache.NewManager(exportWorker.Exported()).Run(gctx, 10*time.Minute)
	})
	return g.Wait()
}

func newExporter(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.TransactionExporter, error) {
	if !cfg.SheetsEnabled() {
		logger.Warn("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, rows are kept in memory")
		return sheetsmem.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	return client, nil
}
