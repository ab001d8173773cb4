package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/PassKeeper/internal/models"
	"go.uber.org/zap"
)

// HistoryService defines the history operations required by the HTTP handlers.
type HistoryService interface {
	Record(ctx context.Context, secretID int64, priorBlob string) (*models.HistoryEntry, error)
	ForSecret(ctx context.Context, secretID int64) ([]models.HistoryEntry, error)
	All(ctx context.Context) ([]models.HistoryEntry, error)
	MostChangedLabel(ctx context.Context) (*models.LabelChanges, error)
}

// HistoryHandler handles HTTP requests for secret history.
type HistoryHandler struct {
	HistoryService HistoryService
	Logger         *zap.Logger
}

// RecordRequest is the JSON payload for a manual history entry.
type RecordRequest struct {
	SecretID  int64  `json:"secret_id"`
	PriorBlob string `json:"prior_blob"`
}

// Record handles POST /api/history.
func (h *HistoryHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req RecordRequest
	if !decode(r, &req) {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	entry, err := h.HistoryService.Record(r.Context(), req.SecretID, req.PriorBlob)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// ForSecret handles GET /api/secrets/{id}/history.
func (h *HistoryHandler) ForSecret(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	entries, err := h.HistoryService.ForSecret(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// All handles GET /api/history.
func (h *HistoryHandler) All(w http.ResponseWriter, r *http.Request) {
	entries, err := h.HistoryService.All(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// MostChanged handles GET /api/history/most-changed.
func (h *HistoryHandler) MostChanged(w http.ResponseWriter, r *http.Request) {
	lc, err := h.HistoryService.MostChangedLabel(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, lc)
}
