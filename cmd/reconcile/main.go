package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cryptofolio/backend/internal/application/service"
	"github.com/cryptofolio/backend/internal/cli"
	"github.com/cryptofolio/backend/internal/infrastructure/logging"
	"github.com/cryptofolio/backend/internal/infrastructure/storage"
	"github.com/cryptofolio/backend/internal/ingest"
)

func main() {
	flags := cli.ParseReconcileFlags()
	cfg := flags.LoadConfig()

	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "reconcile")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	cli.PrintHeader("reconcile", cfg.Storage.DatabasePath)

	if flags.CSVIn != "" {
		if err := importCSV(store, flags.CSVIn); err != nil {
			logger.Error("failed to import CSV", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("imported transactions", slog.String("file", flags.CSVIn))
	}

	svc := service.NewReconcileService(cli.ReconcileOptions(cfg), store, logger, nil)
	result, err := svc.Run()
	if err != nil {
		logger.Error("reconciliation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if flags.CSVOut != "" {
		if err := exportCSV(store, flags.CSVOut); err != nil {
			logger.Error("failed to export CSV", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("exported transactions", slog.String("file", flags.CSVOut))
	}

	cli.PrintRunSummary(result, store)
}

func importCSV(store *storage.Storage, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	batch, err := ingest.ReadBatch(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return store.SaveTransactions(batch.Rows)
}

func exportCSV(store *storage.Storage, path string) error {
	batch, err := store.LoadBatch()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return ingest.WriteBatch(f, batch)
}
