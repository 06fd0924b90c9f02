package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"bookkeeper/internal/amqp"
	"bookkeeper/internal/backup"
	"bookkeeper/internal/backup/gcs"
	"bookkeeper/internal/cli"
	apphttp "bookkeeper/internal/http"
	"bookkeeper/internal/services"
	gsheet "bookkeeper/internal/sheets/google"
	"bookkeeper/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	store := cli.InitBackend(ctx, logger, cfg)

	opts := services.Options{
		DocumentKey: cfg.DocumentKey,
		Logger:      logger,
	}

	// Change notifications are optional; the API works without a broker
	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without change notifications", "error", err)
			amqpClient = nil
		} else {
			opts.Publisher = amqpClient
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
		}
	}

	book, err := services.Open(ctx, store.Store, opts)
	if err != nil {
		cli.Fatal(logger, "Failed to open book", err)
	}

	serverOpts := apphttp.Options{
		CookieName:          cfg.SessionCookieName,
		SecureCookie:        os.Getenv("SECURE_COOKIE") == "true",
		Health:              store.Health,
		ExportRatePerMinute: cfg.ExportRatePerMinute,
		Logger:              logger,
	}

	var mirror *worker.MirrorWorker
	if cfg.SheetsEnabled() {
		sheets, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
		}
		mirror = worker.NewMirrorWorker(store.Store, sheets, worker.MirrorConfig{PollInterval: cfg.MirrorPollInterval})
		serverOpts.Mirror = mirror
		logger.Info("Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}

	var bucket *gcs.Bucket
	if cfg.BackupEnabled() {
		bucket, err = gcs.New(ctx, cfg.BackupBucket)
		if err != nil {
			cli.Fatal(logger, "Failed to initialize backup bucket", err, "bucket", cfg.BackupBucket)
		}
		serverOpts.Backups = backup.NewService(bucket, cfg.BackupObjectPrefix)
		logger.Info("Remote backups enabled", "bucket", cfg.BackupBucket, "prefix", cfg.BackupObjectPrefix)
	}

	srv := apphttp.NewServer(":"+cfg.Port, book, serverOpts)

	shutdownCtx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if bucket != nil {
			_ = bucket.Close()
		}
		if err := store.Cleanup(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	})

	g, gctx := errgroup.WithContext(shutdownCtx)
	g.Go(func() error {
		logger.Info("Starting bookkeeper server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"revision", book.Revision())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on :%s: %w", cfg.Port, err)
		}
		return nil
	})
	// Without a broker no worker process hears about changes, so the mirror
	// is refreshed on a timer here instead
	if mirror != nil && amqpClient == nil {
		g.Go(func() error {
			if err := mirror.Start(gctx); err != nil {
				return err
			}
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := mirror.Stop(stopCtx); err != nil {
				logger.Warn("Mirror worker did not stop cleanly", "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		cli.Fatal(logger, "Server error", err)
	}
	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
