package cli

import (
	"flag"

	"github.com/cryptofolio/backend/internal/domain/reconcile"
	"github.com/cryptofolio/backend/internal/infrastructure/config"
)

// ReconcileFlags are common flags for the reconcile and import commands
type ReconcileFlags struct {
	ConfigFile string
	DBPath     string
	CSVIn      string
	CSVOut     string
	Verbose    bool
}

// ParseReconcileFlags parses common flags from the command line
func ParseReconcileFlags() *ReconcileFlags {
	flags := &ReconcileFlags{}
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&flags.DBPath, "db", "", "SQLite database path (overrides config)")
	flag.StringVar(&flags.CSVIn, "csv-in", "", "CSV file to import before reconciling")
	flag.StringVar(&flags.CSVOut, "csv-out", "", "CSV file to export reconciled rows to")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// LoadConfig resolves configuration for the command, letting flags win
// over file and environment values.
func (f *ReconcileFlags) LoadConfig() *config.Config {
	var cfg *config.Config
	if f.ConfigFile != "" {
		cfg = config.LoadOrEnvWithPath(f.ConfigFile)
	} else {
		cfg = config.LoadOrEnv()
	}
	if f.DBPath != "" {
		cfg.Storage.DatabasePath = f.DBPath
	}
	if f.Verbose {
		cfg.Observability.Logging.Level = "debug"
	}
	return cfg
}

// ReconcileOptions converts file configuration into engine configuration.
func ReconcileOptions(cfg *config.Config) reconcile.Config {
	options := reconcile.DefaultConfig()
	if cfg.Reconcile.TimeTolerance > 0 {
		options.TimeTolerance = cfg.Reconcile.TimeTolerance.Std()
	}
	if cfg.Reconcile.QuantityTolerance > 0 {
		options.QuantityTolerance = cfg.Reconcile.QuantityTolerance
	}
	return options
}
