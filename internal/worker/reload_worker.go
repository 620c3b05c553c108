// Package worker reacts to import-completed events by reloading the
// transaction feed, and optionally mirrors the fresh snapshot to the
// configured exporter.
package worker

import (
	"context"
	"fmt"

	"gofinances/internal/amqp"
	"gofinances/internal/core"
	"gofinances/internal/feed"
	"gofinances/internal/log"
)

// Exporter mirrors a snapshot somewhere else after a reload. Optional.
type Exporter interface {
	Export(ctx context.Context, snap core.Snapshot) error
}

type ReloadWorker struct {
	loader   *feed.Loader
	exporter Exporter
	logger   *log.Logger
}

func NewReloadWorker(loader *feed.Loader, exporter Exporter, logger *log.Logger) *ReloadWorker {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentWorker})
	}
	return &ReloadWorker{
		loader:   loader,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleImportCompleted processes one import event: reload the feed so the
// freshly imported transactions become visible.
func (w *ReloadWorker) HandleImportCompleted(ctx context.Context, msg *amqp.ImportCompletedMessage) error {
	w.logger.InfoContext(ctx, "Processing import completed event",
		log.FieldEntryID, msg.EntryID,
		log.FieldFileName, msg.FileName)

	snap, err := w.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload feed: %w", err)
	}

	if w.exporter != nil {
		if err := w.exporter.Export(ctx, snap); err != nil {
			// The reload already succeeded; a failed export is logged and
			// the message is still acked.
			w.logger.ErrorContext(ctx, "Snapshot export failed", log.FieldError, err)
		}
	}

	return nil
}

// Run consumes import events until the context is cancelled, reconnecting
// to the broker as needed.
func (w *ReloadWorker) Run(ctx context.Context, amqpURL, exchange, queue string) error {
	return amqp.ConsumeWithReconnect(ctx, amqpURL, exchange, queue, func(msg *amqp.ImportCompletedMessage) error {
		return w.HandleImportCompleted(ctx, msg)
	})
}
