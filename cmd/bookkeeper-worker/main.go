package main

import (
	"context"
	"errors"
	"os"

	"bookkeeper/internal/amqp"
	"bookkeeper/internal/cli"
	gsheet "bookkeeper/internal/sheets/google"
	"bookkeeper/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting bookkeeper-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.DataBackend != "sqlite" {
		logger.Error("The worker reads the shared SQLite document; set DATA_BACKEND=sqlite", "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if !cfg.SheetsEnabled() {
		logger.Error("Nothing to do: GOOGLE_SPREADSHEET_ID is not set")
		os.Exit(1)
	}

	ctx := context.Background()
	store := cli.InitBackend(ctx, logger, cfg)

	sheets, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
	}

	mirror := worker.NewMirrorWorker(store.Store, sheets, worker.MirrorConfig{PollInterval: cfg.MirrorPollInterval})

	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			cli.Fatal(logger, "Failed to initialize AMQP client", err)
		}
	} else {
		logger.Info("AMQP disabled, relying on periodic mirror only", "poll_interval", cfg.MirrorPollInterval)
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		logger.Info("Shutting down worker...")
		if err := mirror.Stop(shutdownCtx); err != nil {
			logger.Error("Failed to stop mirror worker", "error", err)
		}
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if err := store.Cleanup(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	})

	// The periodic loop also performs the startup sync
	if err := mirror.Start(ctx); err != nil {
		cli.Fatal(logger, "Failed to start mirror worker", err)
	}

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeDocumentChanges(ctx, mirror.HandleDocumentChanged)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
}
