package handlers

import (
	"net/http"

	"github.com/cryptofolio/backend/internal/api/dto"
	"github.com/cryptofolio/backend/internal/application/service"
	"github.com/cryptofolio/backend/internal/infrastructure/storage"
)

// ReconcileHandler triggers reconciliation runs over the stored table.
type ReconcileHandler struct {
	*Base
	svc *service.ReconcileService
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(repo storage.Repository, svc *service.ReconcileService) *ReconcileHandler {
	return &ReconcileHandler{
		Base: NewBase(repo),
		svc:  svc,
	}
}

// Run handles POST /api/reconcile - runs reconciliation synchronously.
// Batches are small enough that the run completes within a request.
func (h *ReconcileHandler) Run(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Run()
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ReconcileResponse{
		RunID:        result.RunID,
		Total:        result.Stats.Total,
		MatchedPairs: result.Stats.MatchedPairs,
		UnmatchedOut: result.Stats.UnmatchedOut,
		UnmatchedIn:  result.Stats.UnmatchedIn,
		ElapsedMs:    result.Elapsed.Milliseconds(),
		Status:       storage.RunStatusCompleted,
	})
}
