package dto

import (
	"time"

	"github.com/cryptofolio/backend/internal/domain/ledger"
	"github.com/cryptofolio/backend/internal/infrastructure/storage"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a healthy response with the current time.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// TransactionResponse represents one transaction row in API responses.
type TransactionResponse struct {
	ID                  int64   `json:"id"`
	Timestamp           string  `json:"timestamp"`
	Type                string  `json:"type"`
	Asset               string  `json:"asset"`
	Quantity            float64 `json:"quantity"`
	Institution         string  `json:"institution"`
	TxHash              string  `json:"tx_hash,omitempty"`
	CostBasis           float64 `json:"cost_basis"`
	TransferID          string  `json:"transfer_id,omitempty"`
	MatchingInstitution string  `json:"matching_institution,omitempty"`
	MatchingDate        string  `json:"matching_date,omitempty"`
	CostBasisPerUnit    float64 `json:"cost_basis_per_unit,omitempty"`
}

// FromTransaction converts a ledger row to an API response.
func FromTransaction(row *ledger.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                  row.ID,
		Timestamp:           row.Timestamp.Format(time.RFC3339),
		Type:                string(row.Type),
		Asset:               row.Asset,
		Quantity:            row.Quantity,
		Institution:         row.Institution,
		TxHash:              row.TxHash,
		CostBasis:           row.CostBasis,
		TransferID:          row.TransferID,
		MatchingInstitution: row.MatchingInstitution,
		MatchingDate:        row.MatchingDate,
		CostBasisPerUnit:    row.CostBasisPerUnit,
	}
}

// TransactionListResponse is returned when listing transactions.
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	TotalCount   int                   `json:"total_count"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

// ReconcileRunResponse represents a reconciliation run.
type ReconcileRunResponse struct {
	ID           int64  `json:"id"`
	StartedAt    string `json:"started_at"`
	CompletedAt  string `json:"completed_at,omitempty"`
	Status       string `json:"status"`
	Total        int    `json:"total"`
	MatchedPairs int    `json:"matched_pairs"`
	UnmatchedOut int    `json:"unmatched_out"`
	UnmatchedIn  int    `json:"unmatched_in"`
}

// FromReconcileRun converts a storage run to an API response.
func FromReconcileRun(run *storage.ReconcileRun) ReconcileRunResponse {
	response := ReconcileRunResponse{
		ID:           run.ID,
		StartedAt:    run.StartedAt.UTC().Format(time.RFC3339),
		Status:       run.Status,
		Total:        run.Total,
		MatchedPairs: run.MatchedPairs,
		UnmatchedOut: run.UnmatchedOut,
		UnmatchedIn:  run.UnmatchedIn,
	}
	if run.CompletedAt != nil {
		response.CompletedAt = run.CompletedAt.UTC().Format(time.RFC3339)
	}
	return response
}

// RunListResponse is returned when listing reconciliation runs.
type RunListResponse struct {
	Runs []ReconcileRunResponse `json:"runs"`
}

// ReconcileResponse is returned after triggering a reconciliation.
type ReconcileResponse struct {
	RunID        int64  `json:"run_id"`
	Total        int    `json:"total"`
	MatchedPairs int    `json:"matched_pairs"`
	UnmatchedOut int    `json:"unmatched_out"`
	UnmatchedIn  int    `json:"unmatched_in"`
	ElapsedMs    int64  `json:"elapsed_ms"`
	Status       string `json:"status"`
}

// StatsResponse is returned by the stats endpoint.
type StatsResponse struct {
	TotalTransactions  int            `json:"total_transactions"`
	CountsByType       map[string]int `json:"counts_by_type"`
	MatchedTransfers   int            `json:"matched_transfers"`
	UnmatchedTransfers int            `json:"unmatched_transfers"`
}
