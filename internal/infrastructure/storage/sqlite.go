package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cryptofolio/backend/internal/domain/ledger"
)

// Storage provides SQLite database access for the transaction table and
// reconciliation run history. It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	// Run all pending migrations
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveTransactions inserts a batch of rows, assigning each its storage ID
func (s *Storage) SaveTransactions(rows []*ledger.Transaction) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
	INSERT INTO transactions
	(timestamp, type, asset, quantity, institution, cost_basis, tx_hash,
	 transfer_id, matching_institution, matching_date, cost_basis_per_unit)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		result, err := stmt.Exec(
			row.Timestamp,
			string(row.Type),
			row.Asset,
			row.Quantity,
			row.Institution,
			row.CostBasis,
			nullable(row.TxHash),
			nullable(row.TransferID),
			nullable(row.MatchingInstitution),
			nullable(row.MatchingDate),
			row.CostBasisPerUnit,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
		row.ID, err = result.LastInsertId()
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

const transactionColumns = `
	id, timestamp, type, asset, quantity, institution, cost_basis, tx_hash,
	transfer_id, matching_institution, matching_date, cost_basis_per_unit`

// LoadBatch returns the whole transaction table ordered by insertion.
// The batch reports a hash column only when at least one stored row
// carries a hash; hash matching is pointless otherwise.
func (s *Storage) LoadBatch() (*ledger.Batch, error) {
	rows, err := s.db.Query(`
	SELECT` + transactionColumns + `
	FROM transactions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	batch := &ledger.Batch{}
	for rows.Next() {
		row, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		if row.TxHash != "" {
			batch.HasTxHash = true
		}
		batch.Rows = append(batch.Rows, row)
	}

	return batch, rows.Err()
}

// UpdateTransferMatches writes back the reconciler-mutated fields
func (s *Storage) UpdateTransferMatches(rows []*ledger.Transaction) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
	UPDATE transactions
	SET quantity = ?, cost_basis = ?, transfer_id = ?,
	    matching_institution = ?, matching_date = ?, cost_basis_per_unit = ?
	WHERE id = ?
	`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		if row.ID == 0 {
			_ = tx.Rollback()
			return fmt.Errorf("cannot update transaction without storage ID")
		}
		if _, err := stmt.Exec(
			row.Quantity,
			row.CostBasis,
			nullable(row.TransferID),
			nullable(row.MatchingInstitution),
			nullable(row.MatchingDate),
			row.CostBasisPerUnit,
			row.ID,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update transaction %d: %w", row.ID, err)
		}
	}

	return tx.Commit()
}

// GetTransaction retrieves one row by ID, or nil when absent
func (s *Storage) GetTransaction(id int64) (*ledger.Transaction, error) {
	row := s.db.QueryRow(`
	SELECT`+transactionColumns+`
	FROM transactions WHERE id = ?`, id)

	record, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListTransactions returns rows matching the filters with pagination
func (s *Storage) ListTransactions(filters TransactionFilters) (*TransactionListResult, error) {
	where, args := buildTransactionFilters(filters)

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM transactions" + where
	if err := s.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, err
	}

	query := "SELECT" + transactionColumns + " FROM transactions" + where +
		" ORDER BY id LIMIT ? OFFSET ?"
	rows, err := s.db.Query(query, append(args, limit, filters.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := &TransactionListResult{
		Transactions: make([]*ledger.Transaction, 0),
		TotalCount:   total,
		Limit:        limit,
		Offset:       filters.Offset,
	}
	for rows.Next() {
		record, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result.Transactions = append(result.Transactions, record)
	}

	return result, rows.Err()
}

// GetStats returns aggregate statistics over the stored table
func (s *Storage) GetStats() (*Stats, error) {
	stats := &Stats{CountsByType: make(map[string]int)}

	rows, err := s.db.Query(`SELECT type, COUNT(*) FROM transactions GROUP BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		stats.CountsByType[kind] = count
		stats.TotalTransactions += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = s.db.QueryRow(`
	SELECT COUNT(*) FROM transactions
	WHERE type IN ('transfer_out', 'transfer_in') AND transfer_id IS NOT NULL
	`).Scan(&stats.MatchedTransfers)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRow(`
	SELECT COUNT(*) FROM transactions
	WHERE type IN ('transfer_out', 'transfer_in') AND transfer_id IS NULL
	`).Scan(&stats.UnmatchedTransfers)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// StartRun records the start of a reconciliation run
func (s *Storage) StartRun(total int) (int64, error) {
	result, err := s.db.Exec(`
	INSERT INTO reconcile_runs (status, total) VALUES (?, ?)
	`, RunStatusRunning, total)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// CompleteRun records the completion of a run with its match counts
func (s *Storage) CompleteRun(runID int64, matchedPairs, unmatchedOut, unmatchedIn int) error {
	_, err := s.db.Exec(`
	UPDATE reconcile_runs
	SET status = ?, completed_at = CURRENT_TIMESTAMP,
	    matched_pairs = ?, unmatched_out = ?, unmatched_in = ?
	WHERE id = ?
	`, RunStatusCompleted, matchedPairs, unmatchedOut, unmatchedIn, runID)
	return err
}

// ListRuns returns recent runs, newest first
func (s *Storage) ListRuns(limit int) ([]ReconcileRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
	SELECT id, started_at, completed_at, status, total,
	       matched_pairs, unmatched_out, unmatched_in
	FROM reconcile_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]ReconcileRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// GetRun retrieves a run by ID, or nil when absent
func (s *Storage) GetRun(runID int64) (*ReconcileRun, error) {
	row := s.db.QueryRow(`
	SELECT id, started_at, completed_at, status, total,
	       matched_pairs, unmatched_out, unmatched_in
	FROM reconcile_runs WHERE id = ?`, runID)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(src scanner) (*ledger.Transaction, error) {
	record := &ledger.Transaction{}
	var kind string
	var txHash, transferID, matchingInstitution, matchingDate sql.NullString

	err := src.Scan(
		&record.ID,
		&record.Timestamp,
		&kind,
		&record.Asset,
		&record.Quantity,
		&record.Institution,
		&record.CostBasis,
		&txHash,
		&transferID,
		&matchingInstitution,
		&matchingDate,
		&record.CostBasisPerUnit,
	)
	if err != nil {
		return nil, err
	}

	record.Type = ledger.Type(kind)
	record.TxHash = txHash.String
	record.TransferID = transferID.String
	record.MatchingInstitution = matchingInstitution.String
	record.MatchingDate = matchingDate.String
	return record, nil
}

func scanRun(src scanner) (*ReconcileRun, error) {
	run := &ReconcileRun{}
	var completedAt sql.NullTime

	err := src.Scan(
		&run.ID,
		&run.StartedAt,
		&completedAt,
		&run.Status,
		&run.Total,
		&run.MatchedPairs,
		&run.UnmatchedOut,
		&run.UnmatchedIn,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return run, nil
}

// buildTransactionFilters assembles the WHERE clause for ListTransactions
func buildTransactionFilters(filters TransactionFilters) (string, []any) {
	var clauses []string
	var args []any

	if filters.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, filters.Type)
	}
	if filters.Asset != "" {
		clauses = append(clauses, "asset = ?")
		args = append(args, filters.Asset)
	}
	if filters.Institution != "" {
		clauses = append(clauses, "LOWER(institution) = LOWER(?)")
		args = append(args, filters.Institution)
	}
	if filters.Matched != nil {
		if *filters.Matched {
			clauses = append(clauses, "transfer_id IS NOT NULL")
		} else {
			clauses = append(clauses, "transfer_id IS NULL")
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// nullable maps empty strings to NULL so "unset" is queryable
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
