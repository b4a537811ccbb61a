// Package worker turns TransactionRecorded events into spreadsheet rows.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/metrics"
	"conti/internal/ports"

	"github.com/google/uuid"
)

// Export outcomes.
const (
	OutcomeExported = "ok"
	OutcomeStale    = "stale"
	OutcomeMissing  = "missing"
	OutcomeFailed   = "failed"
)

type transactionReader interface {
	GetTransaction(ctx context.Context, bookID, id uuid.UUID) (core.Transaction, error)
}

// ExportWorker copies each recorded transaction to an external ledger.
type ExportWorker struct {
	store    transactionReader
	exporter ports.TransactionExporter
	metrics  *metrics.Metrics
}

func NewExportWorker(store transactionReader, exporter ports.TransactionExporter, m *metrics.Metrics) *ExportWorker {
	return &ExportWorker{store: store, exporter: exporter, metrics: m}
}

// HandleTransactionRecorded loads the transaction named by msg and exports
// it. Messages for a version older than the stored one are acknowledged
// without exporting, since the newer version has its own message.
func (w *ExportWorker) HandleTransactionRecorded(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	fields := log.NewFields().WithTransaction(msg.BookID.String(), msg.ID.String(), msg.Version)

	tx, err := w.store.GetTransaction(ctx, msg.BookID, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		w.metrics.IncExport(OutcomeMissing)
		return fmt.Errorf("transaction %s: %w", msg.ID, errors.Join(err, amqp.ErrDrop))
	}
	if err != nil {
		w.metrics.IncExport(OutcomeFailed)
		return fmt.Errorf("load transaction: %w", err)
	}

	if tx.Version > msg.Version {
		w.metrics.IncExport(OutcomeStale)
		slog.InfoContext(ctx, "Skipping stale transaction message", fields.ToSlice()...)
		return nil
	}

	ref, err := w.exporter.ExportTransaction(ctx, tx)
	if err != nil {
		w.metrics.IncExport(OutcomeFailed)
		return fmt.Errorf("export transaction: %w", err)
	}

	w.metrics.IncExport(OutcomeExported)
	fields[log.FieldSheetsRef] = ref
	slog.InfoContext(ctx, "Transaction exported", fields.WithOperation(log.OpExport).ToSlice()...)
	return nil
}

// Consumer delivers TransactionRecorded messages; *amqp.Client is one.
type Consumer interface {
	ConsumeTransactionRecorded(ctx context.Context, handler func(context.Context, *amqp.TransactionRecordedMessage) error) error
}

// Run consumes from c until ctx is done.
func (w *ExportWorker) Run(ctx context.Context, c Consumer) error {
	return c.ConsumeTransactionRecorded(ctx, w.HandleTransactionRecorded)
}
