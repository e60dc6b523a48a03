// Package service orchestrates reconciliation runs against storage.
package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cryptofolio/backend/internal/domain/ledger"
	"github.com/cryptofolio/backend/internal/domain/reconcile"
	"github.com/cryptofolio/backend/internal/infrastructure/storage"
	"github.com/cryptofolio/backend/internal/observability"
)

// ReconcileService loads the transaction table, runs the transfer
// reconciler over it, and persists the mutated rows plus a run record.
type ReconcileService struct {
	reconciler *reconcile.Reconciler
	repo       storage.Repository
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewReconcileService creates a service. metrics may be nil when no
// collector is wired (e.g., one-shot CLI runs).
func NewReconcileService(config reconcile.Config, repo storage.Repository, logger *slog.Logger, metrics *observability.Metrics) *ReconcileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileService{
		reconciler: reconcile.NewReconciler(config),
		repo:       repo,
		logger:     logger,
		metrics:    metrics,
	}
}

// RunResult describes one completed reconciliation run.
type RunResult struct {
	RunID   int64           `json:"run_id"`
	Stats   reconcile.Stats `json:"stats"`
	Elapsed time.Duration   `json:"elapsed"`
}

// Run executes one reconciliation pass over the stored transaction table.
func (s *ReconcileService) Run() (*RunResult, error) {
	batch, err := s.repo.LoadBatch()
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	s.logger.Info("starting reconciliation",
		"transactions", len(batch.Rows),
		"hash_column", batch.HasTxHash)

	runID, err := s.repo.StartRun(len(batch.Rows))
	if err != nil {
		return nil, fmt.Errorf("failed to record run start: %w", err)
	}

	started := time.Now()
	stats := s.reconciler.Reconcile(batch)
	elapsed := time.Since(started)

	// Persist every transfer leg: the normalizer may have flipped inbound
	// quantities even on rows that never matched.
	transfers := make([]*ledger.Transaction, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		if row.IsTransfer() {
			transfers = append(transfers, row)
		}
	}
	if err := s.repo.UpdateTransferMatches(transfers); err != nil {
		return nil, fmt.Errorf("failed to persist matches: %w", err)
	}

	if err := s.repo.CompleteRun(runID, stats.MatchedPairs, stats.UnmatchedOut, stats.UnmatchedIn); err != nil {
		return nil, fmt.Errorf("failed to record run completion: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ObserveRun(stats.Total, stats.MatchedPairs, stats.UnmatchedOut, stats.UnmatchedIn, elapsed)
	}

	s.logger.Info("reconciliation complete",
		"run_id", runID,
		"matched_pairs", stats.MatchedPairs,
		"unmatched_out", stats.UnmatchedOut,
		"unmatched_in", stats.UnmatchedIn,
		"elapsed", elapsed.Round(time.Millisecond))

	return &RunResult{RunID: runID, Stats: stats, Elapsed: elapsed}, nil
}
