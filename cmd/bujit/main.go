package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"bujit/internal/amqp"
	"bujit/internal/backend"
	"bujit/internal/cli"
	"bujit/internal/config"
	apphttp "bujit/internal/http"
	"bujit/internal/ledger"
	"bujit/internal/log"
)

// eventBuffer is how many ledger events may wait for the broker.
const eventBuffer = 256

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig((*config.Config).Validate)
	if err != nil {
		cli.Exit(err)
	}
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(nil).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Failed to close store", log.FieldError, err)
		}
	}()

	opts := []ledger.Option{ledger.WithAtomicCommits(cfg.AtomicCommits)}

	// Event publishing is optional; the ledger works without a broker.
	var publisher *amqp.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without ledger events", log.FieldError, err)
		} else {
			defer client.Close()
			publisher = amqp.NewPublisher(client, eventBuffer)
			opts = append(opts, ledger.WithListener(publisher.Listen))
			logger.Info("Publishing ledger events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	svc := ledger.NewService(res.Store, opts...)
	defer svc.Close()

	loadCtx, cancel := cli.OperationContext(ctx, cfg.OperationTimeout)
	err = svc.Load(loadCtx)
	cancel()
	if err != nil {
		return err
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		OperationTimeout: cfg.OperationTimeout,
		Ping:             res.Ping,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cli.WriteTimeout(cfg.OperationTimeout)
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting bujit server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if publisher != nil {
		g.Go(func() error { return publisher.Run(gctx) })
	}
	return g.Wait()
}
