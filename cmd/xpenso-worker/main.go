package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"xpenso/internal/amqp"
	"xpenso/internal/cli"
	"xpenso/internal/log"
	"xpenso/internal/services"
	"xpenso/internal/sheets"
	gsheet "xpenso/internal/sheets/google"
	memsheet "xpenso/internal/sheets/memory"
	"xpenso/internal/storage"
	"xpenso/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig()
	logger = logger.WithComponent(log.ComponentWorker)
	logger.Info("Starting xpenso-worker")

	if cfg.DataBackend != "sqlite" {
		logger.Error("The sync worker requires DATA_BACKEND=sqlite", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var rows sheets.RowWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error())
			os.Exit(1)
		}
		rows = client
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		rows = memsheet.New()
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, mirroring into memory only")
	}

	sw := worker.NewSyncWorker(repo, rows, cfg.SyncBatchSize, cfg.SyncConcurrency, logger)
	processor := services.NewSyncProcessor(sw, services.SyncProcessorConfig{PollInterval: cfg.SyncInterval})

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, relying on periodic sync", log.FieldError, err.Error())
		} else {
			defer client.Close()
			g.Go(func() error {
				err := client.ConsumeExpenseEvents(gctx, sw.HandleEvent)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		}
	} else {
		logger.Info("AMQP_URL not set, relying on periodic sync")
	}

	if err := processor.Start(gctx); err != nil {
		logger.Error("Failed to start sync processor", log.FieldError, err.Error())
		os.Exit(1)
	}
	g.Go(func() error {
		<-gctx.Done()
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer stopCancel()
		return processor.Stop(stopCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err.Error())
		return
	}
	logger.Info("Worker shutdown complete")
}
