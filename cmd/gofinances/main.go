package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"gofinances/internal/amqp"
	"gofinances/internal/backend"
	"gofinances/internal/cli"
	"gofinances/internal/feed"
	apphttp "gofinances/internal/http"
	"gofinances/internal/log"
	"gofinances/internal/upload"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.ComponentApp)
	logger.Info("Starting gofinances server")

	cfg := cli.LoadAndValidateConfig(logger)

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
		// A stale or unreadable snapshot is not fatal; the first load
		// replaces it.
		logger.Warn("Snapshot restore failed", log.FieldError, err)
	}

	queue := upload.NewQueue(client, upload.Config{
		AcceptedTypes: cfg.AcceptedImportTypes,
		Concurrency:   cfg.UploadConcurrency,
	}, logger)

	// Import-completed events are optional: without AMQP the view layer
	// triggers reloads itself.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		queue.SetPublisher(amqpClient)
		logger.Info("AMQP import events enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, loader, queue, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting gofinances server", "port", cfg.Port, "backend_url", cfg.BackendBaseURL)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
