package storage

import (
	"github.com/cryptofolio/backend/internal/domain/ledger"
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, etc.)
// and makes testing with mocks straightforward.
type Repository interface {
	TransactionRepository
	ReconcileRunRepository
	Close() error
}

// TransactionRepository handles the normalized transaction table
type TransactionRepository interface {
	// SaveTransactions appends a batch of rows to the transaction table,
	// assigning storage IDs to the inserted rows
	SaveTransactions(rows []*ledger.Transaction) error

	// LoadBatch returns the full transaction table in stable insertion
	// order, ready to hand to the reconciler
	LoadBatch() (*ledger.Batch, error)

	// UpdateTransferMatches writes back the fields mutated by the
	// reconciler (transfer_id, matching_institution, matching_date,
	// cost_basis, cost_basis_per_unit) for the given rows
	UpdateTransferMatches(rows []*ledger.Transaction) error

	// GetTransaction retrieves one row by storage ID; nil when absent
	GetTransaction(id int64) (*ledger.Transaction, error)

	// ListTransactions returns rows matching the given filters with pagination
	ListTransactions(filters TransactionFilters) (*TransactionListResult, error)

	// GetStats returns aggregate statistics over the stored table
	GetStats() (*Stats, error)
}

// TransactionFilters defines filters for listing transactions
type TransactionFilters struct {
	Type        string // Filter by normalized type (empty = all)
	Asset       string // Filter by asset symbol (empty = all)
	Institution string // Filter by venue, case-insensitive (empty = all)
	Matched     *bool  // Filter by transfer-match state (nil = all)
	Limit       int    // Max results (0 = default 50)
	Offset      int    // Pagination offset
}

// TransactionListResult contains paginated transaction results
type TransactionListResult struct {
	Transactions []*ledger.Transaction `json:"transactions"`
	TotalCount   int                   `json:"total_count"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

// ReconcileRunRepository handles reconciliation run tracking
type ReconcileRunRepository interface {
	// StartRun records the start of a reconciliation run and returns the run ID
	StartRun(total int) (int64, error)

	// CompleteRun records the completion of a run with its match counts
	CompleteRun(runID int64, matchedPairs, unmatchedOut, unmatchedIn int) error

	// ListRuns returns recent runs, newest first
	ListRuns(limit int) ([]ReconcileRun, error)

	// GetRun retrieves a run by ID; nil when absent
	GetRun(runID int64) (*ReconcileRun, error)
}
