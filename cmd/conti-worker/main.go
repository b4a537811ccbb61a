package main

import (
	"context"
	"errors"
	"os"

	"conti/internal/amqp"
	"conti/internal/cli"
	"conti/internal/config"
	"conti/internal/log"
	"conti/internal/metrics"
	gsheet "conti/internal/sheets/google"
	"conti/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting conti-worker", log.FieldOperation, log.OpStartup)
	cli.MustValidate(logger, cfg.ValidateWorker)

	store, err := cli.OpenStore(cfg, logger.WithComponent(log.ComponentStorage))
	if err != nil {
		logger.Error("Failed to open ledger store", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	exporter, err := gsheet.NewExporter(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets exporter", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	w := worker.NewExportWorker(store, exporter, metrics.New())
	if err := w.Run(ctx, client); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
}
