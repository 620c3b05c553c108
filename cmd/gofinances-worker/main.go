package main

import (
	"context"
	"os"
	"time"

	"gofinances/internal/backend"
	"gofinances/internal/cli"
	"gofinances/internal/export"
	"gofinances/internal/feed"
	"gofinances/internal/log"
	"gofinances/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting gofinances-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	store := cli.InitSnapshotStore(logger, cfg)
	defer store.Close()

	client, err := backend.NewClient(backend.Config{
		BaseURL: cfg.BackendBaseURL,
		Timeout: cfg.BackendTimeout,
	})
	if err != nil {
		logger.Error("Failed to initialize backend client", log.FieldError, err)
		os.Exit(1)
	}

	loader := feed.NewLoader(client, store, logger)
	if err := loader.Restore(context.Background()); err != nil {
		logger.Warn("Snapshot restore failed", log.FieldError, err)
	}

	// Google Sheets mirroring is optional.
	var exporter worker.Exporter
	if cfg.GoogleSpreadsheetID != "" {
		sheets, err := export.New(context.Background(), export.Config{
			SpreadsheetID: cfg.GoogleSpreadsheetID,
			SheetName:     cfg.GoogleSheetName,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", log.FieldError, err)
			os.Exit(1)
		}
		exporter = sheets
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	reloadWorker := worker.NewReloadWorker(loader, exporter, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	go func() {
		if err := reloadWorker.Run(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue); err != nil {
			if err != context.Canceled {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
