package storage

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "create_transactions_table",
		Up:      migration001CreateTransactionsTable,
	},
	{
		Version: 2,
		Name:    "add_reconcile_runs_table",
		Up:      migration002AddReconcileRunsTable,
	},
	{
		Version: 3,
		Name:    "add_tx_hash_column",
		Up:      migration003AddTxHashColumn,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue // Already applied
		}

		log.Printf("Running migration %d: %s", migration.Version, migration.Name)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		_, err = tx.Exec(`
			INSERT INTO schema_migrations (version, name) VALUES (?, ?)
		`, migration.Version, migration.Name)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations table
func (s *Storage) ensureMigrationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	_, err := s.db.Exec(query)
	return err
}

// getAppliedMigrations returns a set of applied migration versions
func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// migration001CreateTransactionsTable creates the normalized transaction table.
// Row order matters downstream: the reconciler's tie-breaks follow insertion
// order, so id is the stable sort key.
func migration001CreateTransactionsTable(tx *sql.Tx) error {
	query := `
	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TIMESTAMP NOT NULL,
		type TEXT NOT NULL,
		asset TEXT NOT NULL,
		quantity REAL NOT NULL,
		institution TEXT NOT NULL,
		cost_basis REAL NOT NULL DEFAULT 0,
		transfer_id TEXT,
		matching_institution TEXT,
		matching_date TEXT,
		cost_basis_per_unit REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(type);
	CREATE INDEX IF NOT EXISTS idx_transactions_asset ON transactions(asset);
	CREATE INDEX IF NOT EXISTS idx_transactions_transfer_id ON transactions(transfer_id);
	`

	_, err := tx.Exec(query)
	return err
}

// migration002AddReconcileRunsTable tracks reconciliation runs
func migration002AddReconcileRunsTable(tx *sql.Tx) error {
	query := `
	CREATE TABLE IF NOT EXISTS reconcile_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		completed_at TIMESTAMP,
		status TEXT NOT NULL DEFAULT 'running',
		total INTEGER NOT NULL DEFAULT 0,
		matched_pairs INTEGER NOT NULL DEFAULT 0,
		unmatched_out INTEGER NOT NULL DEFAULT 0,
		unmatched_in INTEGER NOT NULL DEFAULT 0
	)`

	_, err := tx.Exec(query)
	return err
}

// migration003AddTxHashColumn adds the optional on-chain hash column.
// Older imports predate hash support; their rows keep NULL.
func migration003AddTxHashColumn(tx *sql.Tx) error {
	_, err := tx.Exec(`ALTER TABLE transactions ADD COLUMN tx_hash TEXT`)
	return err
}
