// Package cli holds the bootstrap steps shared by cmd/conti and
// cmd/conti-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"conti/internal/config"
	"conti/internal/log"
	"conti/internal/ports"
	"conti/internal/storage"
	"conti/internal/storage/memory"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads the .env file for local development.
// A missing file is fine in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from cfg and installs it as slog's default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel)
	lc := log.DefaultConfig()
	lc.Level = level
	lc.Format = cfg.LogFormat
	lc.Component = component
	logger := log.New(lc)
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", "value", cfg.LogLevel)
	}
	return logger
}

// MustValidate exits the process when validate reports a problem.
func MustValidate(logger *log.Logger, validate func() error) {
	if err := validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
}

// Store is a ledger backend plus its release hook.
type Store struct {
	ports.LedgerStore
	Close func() error
	// Ping is nil for backends with nothing to probe.
	Ping func(ctx context.Context) error
}

// OpenStore opens the backend named by cfg.DataBackend.
func OpenStore(cfg *config.Config, logger *log.Logger) (*Store, error) {
	switch cfg.DataBackend {
	case config.BackendSQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite repository at %s: %w", cfg.SQLiteDBPath, err)
		}
		logger.Info("Using SQLite backend", "path", cfg.SQLiteDBPath)
		return &Store{LedgerStore: repo, Close: repo.Close, Ping: repo.Ping}, nil
	case config.BackendMemory:
		logger.Info("Using in-memory backend")
		return &Store{LedgerStore: memory.New(), Close: func() error { return nil }}, nil
	}
	return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)
	}()
	return ctx, stop
}
