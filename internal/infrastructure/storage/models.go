package storage

import "time"

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
)

// ReconcileRun represents one reconciliation run over the transaction table
type ReconcileRun struct {
	ID           int64      `json:"id"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Status       string     `json:"status"`
	Total        int        `json:"total"`
	MatchedPairs int        `json:"matched_pairs"`
	UnmatchedOut int        `json:"unmatched_out"`
	UnmatchedIn  int        `json:"unmatched_in"`
}

// Stats aggregates over the stored transaction table
type Stats struct {
	TotalTransactions  int            `json:"total_transactions"`
	CountsByType       map[string]int `json:"counts_by_type"`
	MatchedTransfers   int            `json:"matched_transfers"`
	UnmatchedTransfers int            `json:"unmatched_transfers"`
}
