// Package cli provides the bootstrap steps shared by cmd/bujit and
// cmd/bujit-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bujit/internal/config"
	"bujit/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile(filenames ...string) {
	_ = godotenv.Load(filenames...)
}

// LoadConfig reads the environment and runs validate on the result.
func LoadConfig(validate func(*config.Config) error) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if validate != nil {
		if err := validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// SetupLogger builds the process logger from cfg and installs it as the slog
// default, so component loggers created afterwards share its handler.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		Component: component,
	})
	log.SetDefault(logger)
	return logger
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
	}()
	return ctx, stop
}

// OperationContext bounds ctx by timeout. A zero timeout means no deadline.
func OperationContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// WriteTimeout is the HTTP write timeout for a given operation timeout:
// enough headroom to write the response, or none when operations are
// unbounded.
func WriteTimeout(operation time.Duration) time.Duration {
	if operation <= 0 {
		return 0
	}
	return operation + 5*time.Second
}

// Exit reports err on stderr and terminates the process. It is for failures
// that happen before a logger exists.
func Exit(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
