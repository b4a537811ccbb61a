package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"conti/internal/amqp"
	"conti/internal/cli"
	"conti/internal/config"
	apphttp "conti/internal/http"
	"conti/internal/log"
	"conti/internal/metrics"
	"conti/internal/ports"
	"conti/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	cli.MustValidate(logger, cfg.Validate)

	store, err := cli.OpenStore(cfg, logger.WithComponent(log.ComponentStorage))
	if err != nil {
		logger.Error("Failed to open ledger store", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close ledger store", log.FieldError, err)
		}
	}()

	var publisher ports.TransactionPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP broker", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("Publishing transaction events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	m := metrics.New()
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:         services.NewLedgerService(store, publisher, m),
		Reports:        services.NewReportService(store, m),
		Metrics:        m,
		Logger:         logger,
		Ready:          store.Ping,
		WriteRateLimit: cfg.WriteRateLimit,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting conti server", "port", cfg.Port, "backend", cfg.DataBackend, log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err)
	}
	logger.Info("Server stopped gracefully")
}
