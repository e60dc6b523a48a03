package storage

import (
	"strings"
	"time"

	"github.com/cryptofolio/backend/internal/domain/ledger"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in slices and maps, making tests fast and isolated.
type MockRepository struct {
	transactions []*ledger.Transaction
	runs         map[int64]*ReconcileRun
	nextTxID     int64
	nextRunID    int64

	// Hooks for test assertions
	SaveTransactionsCalled      bool
	UpdateTransferMatchesCalled bool
	LastUpdatedRows             []*ledger.Transaction
	StartRunCalled              bool
	CompleteRunCalled           bool

	// Error injection for testing error paths
	SaveTransactionsErr      error
	LoadBatchErr             error
	UpdateTransferMatchesErr error
	StartRunErr              error
	CompleteRunErr           error
	ListTransactionsErr      error
	GetStatsErr              error
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		runs:      make(map[int64]*ReconcileRun),
		nextTxID:  1,
		nextRunID: 1,
	}
}

// AddTransaction seeds the mock with a row, assigning it an ID
func (m *MockRepository) AddTransaction(row *ledger.Transaction) {
	row.ID = m.nextTxID
	m.nextTxID++
	m.transactions = append(m.transactions, row)
}

// SaveTransactions appends rows, assigning IDs
func (m *MockRepository) SaveTransactions(rows []*ledger.Transaction) error {
	m.SaveTransactionsCalled = true
	if m.SaveTransactionsErr != nil {
		return m.SaveTransactionsErr
	}
	for _, row := range rows {
		m.AddTransaction(row)
	}
	return nil
}

// LoadBatch returns all stored rows in insertion order
func (m *MockRepository) LoadBatch() (*ledger.Batch, error) {
	if m.LoadBatchErr != nil {
		return nil, m.LoadBatchErr
	}
	batch := &ledger.Batch{Rows: m.transactions}
	for _, row := range m.transactions {
		if row.TxHash != "" {
			batch.HasTxHash = true
			break
		}
	}
	return batch, nil
}

// UpdateTransferMatches records the rows it was asked to persist
func (m *MockRepository) UpdateTransferMatches(rows []*ledger.Transaction) error {
	m.UpdateTransferMatchesCalled = true
	m.LastUpdatedRows = rows
	return m.UpdateTransferMatchesErr
}

// GetTransaction returns the row with the given ID, or nil
func (m *MockRepository) GetTransaction(id int64) (*ledger.Transaction, error) {
	for _, row := range m.transactions {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, nil
}

// ListTransactions filters and paginates the stored rows
func (m *MockRepository) ListTransactions(filters TransactionFilters) (*TransactionListResult, error) {
	if m.ListTransactionsErr != nil {
		return nil, m.ListTransactionsErr
	}

	matched := make([]*ledger.Transaction, 0)
	for _, row := range m.transactions {
		if filters.Type != "" && string(row.Type) != filters.Type {
			continue
		}
		if filters.Asset != "" && row.Asset != filters.Asset {
			continue
		}
		if filters.Institution != "" && !strings.EqualFold(row.Institution, filters.Institution) {
			continue
		}
		if filters.Matched != nil && row.Matched() != *filters.Matched {
			continue
		}
		matched = append(matched, row)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	total := len(matched)
	start := filters.Offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return &TransactionListResult{
		Transactions: matched[start:end],
		TotalCount:   total,
		Limit:        limit,
		Offset:       filters.Offset,
	}, nil
}

// GetStats aggregates over the stored rows
func (m *MockRepository) GetStats() (*Stats, error) {
	if m.GetStatsErr != nil {
		return nil, m.GetStatsErr
	}

	stats := &Stats{CountsByType: make(map[string]int)}
	for _, row := range m.transactions {
		stats.TotalTransactions++
		stats.CountsByType[string(row.Type)]++
		if row.IsTransfer() {
			if row.Matched() {
				stats.MatchedTransfers++
			} else {
				stats.UnmatchedTransfers++
			}
		}
	}
	return stats, nil
}

// StartRun records a new running run
func (m *MockRepository) StartRun(total int) (int64, error) {
	m.StartRunCalled = true
	if m.StartRunErr != nil {
		return 0, m.StartRunErr
	}
	id := m.nextRunID
	m.nextRunID++
	m.runs[id] = &ReconcileRun{
		ID:        id,
		StartedAt: time.Now(),
		Status:    RunStatusRunning,
		Total:     total,
	}
	return id, nil
}

// CompleteRun marks a run completed with its counts
func (m *MockRepository) CompleteRun(runID int64, matchedPairs, unmatchedOut, unmatchedIn int) error {
	m.CompleteRunCalled = true
	if m.CompleteRunErr != nil {
		return m.CompleteRunErr
	}
	run, ok := m.runs[runID]
	if !ok {
		return nil
	}
	now := time.Now()
	run.Status = RunStatusCompleted
	run.CompletedAt = &now
	run.MatchedPairs = matchedPairs
	run.UnmatchedOut = unmatchedOut
	run.UnmatchedIn = unmatchedIn
	return nil
}

// ListRuns returns runs newest first
func (m *MockRepository) ListRuns(limit int) ([]ReconcileRun, error) {
	if limit <= 0 {
		limit = 20
	}
	runs := make([]ReconcileRun, 0, len(m.runs))
	for id := m.nextRunID - 1; id >= 1 && len(runs) < limit; id-- {
		if run, ok := m.runs[id]; ok {
			runs = append(runs, *run)
		}
	}
	return runs, nil
}

// GetRun returns the run with the given ID, or nil
func (m *MockRepository) GetRun(runID int64) (*ReconcileRun, error) {
	run, ok := m.runs[runID]
	if !ok {
		return nil, nil
	}
	return run, nil
}

// Close is a no-op for the mock
func (m *MockRepository) Close() error {
	return nil
}
