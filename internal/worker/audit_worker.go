package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

// EventConsumer is the part of the AMQP client the worker drives.
type EventConsumer interface {
	ConsumeTransactionEvents(ctx context.Context, handler amqp.EventHandler) error
}

// AuditWorker appends transaction events received from AMQP to the audit
// table of the configured store.
type AuditWorker struct {
	audit  storage.AuditWriter
	logger *applog.Logger
}

func NewAuditWorker(audit storage.AuditWriter, logger *applog.Logger) *AuditWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &AuditWorker{
		audit:  audit,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleTransactionEvent stores a single event. A returned error makes the
// consumer nack the delivery.
func (w *AuditWorker) HandleTransactionEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	fields := applog.NewFields().
		WithOperation(applog.OpConsume).
		WithOwner(msg.Owner).
		WithTransaction(msg.TransactionID).
		With(applog.FieldEventKind, string(msg.Kind))

	if err := w.audit.InsertEvent(ctx, msg.Event()); err != nil {
		w.logger.ErrorContext(ctx, "Failed to store transaction event", fields.WithError(err).ToSlice()...)
		return fmt.Errorf("store transaction event: %w", err)
	}

	w.logger.InfoContext(ctx, "Stored transaction event", fields.ToSlice()...)
	return nil
}

// Run consumes events until ctx is cancelled.
func (w *AuditWorker) Run(ctx context.Context, consumer EventConsumer) error {
	w.logger.InfoContext(ctx, "Audit worker started", slog.String(applog.FieldOperation, applog.OpStartup))
	err := consumer.ConsumeTransactionEvents(ctx, w.HandleTransactionEvent)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("consume transaction events: %w", err)
	}
	w.logger.InfoContext(ctx, "Audit worker stopped", slog.String(applog.FieldOperation, applog.OpShutdown))
	return nil
}
