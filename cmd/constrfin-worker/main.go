package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"constrfin/internal/amqp"
	"constrfin/internal/config"
	applog "constrfin/internal/log"
	"constrfin/internal/ports"
	"constrfin/internal/sheets"
	"constrfin/internal/storage"
	"constrfin/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.ComponentWorker, slog.LevelInfo)
	applog.SetDefault(logger)

	logger.Info("Starting constrfin-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	// NewSQLiteRepository migrates the schema on open.
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Sheets reporting is optional; without it the worker only refreshes
	// the PDF exports.
	var report ports.ReportWriter
	if cfg.SheetsEnabled() {
		client, err := sheets.NewFromEnv(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Sheets report client", applog.FieldError, err)
			os.Exit(1)
		}
		report = client
		logger.Info("Sheets report client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Sheets reporting disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(repo, repo, report, cfg.ExportDir)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeScheduleChanged(gctx, exportWorker.HandleScheduleChanged)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}

	// Give in-flight handlers a moment before closing connections.
	time.Sleep(100 * time.Millisecond)
	logger.Info("Worker stopped gracefully")
}
