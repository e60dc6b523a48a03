package handlers

import (
	"net/http"

	"github.com/cryptofolio/backend/internal/api/dto"
	"github.com/cryptofolio/backend/internal/infrastructure/storage"
)

// StatsHandler serves aggregate ledger statistics.
type StatsHandler struct {
	*Base
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(repo storage.Repository) *StatsHandler {
	return &StatsHandler{
		Base: NewBase(repo),
	}
}

// Get handles GET /api/stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.GetStats()
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.StatsResponse{
		TotalTransactions:  stats.TotalTransactions,
		CountsByType:       stats.CountsByType,
		MatchedTransfers:   stats.MatchedTransfers,
		UnmatchedTransfers: stats.UnmatchedTransfers,
	})
}
