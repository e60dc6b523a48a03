package main

import (
	"log/slog"
	"os"

	"github.com/cryptofolio/backend/internal/cli"
	"github.com/cryptofolio/backend/internal/infrastructure/logging"
	"github.com/cryptofolio/backend/internal/infrastructure/storage"
	"github.com/cryptofolio/backend/internal/ingest"
)

func main() {
	flags := cli.ParseReconcileFlags()
	cfg := flags.LoadConfig()

	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "import")

	if flags.CSVIn == "" {
		logger.Error("missing required -csv-in flag")
		os.Exit(1)
	}

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	cli.PrintHeader("import", cfg.Storage.DatabasePath)

	f, err := os.Open(flags.CSVIn)
	if err != nil {
		logger.Error("failed to open CSV", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer f.Close()

	batch, err := ingest.ReadBatch(f)
	if err != nil {
		logger.Error("failed to parse CSV", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := store.SaveTransactions(batch.Rows); err != nil {
		logger.Error("failed to save transactions", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("import complete",
		slog.String("file", flags.CSVIn),
		slog.Int("transactions", len(batch.Rows)),
		slog.Bool("hash_column", batch.HasTxHash))
}
