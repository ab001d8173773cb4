package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/PassKeeper/internal/models"
	"github.com/atinyakov/PassKeeper/internal/service"
	"go.uber.org/zap"
)

// SecretService defines the secret lifecycle operations required by the
// HTTP handlers.
type SecretService interface {
	Create(ctx context.Context, ownerID int64, label, plaintext string) (*models.SecretView, error)
	Read(ctx context.Context, id int64) (*models.SecretView, error)
	Update(ctx context.Context, id int64, upd models.SecretUpdate) (*models.SecretView, service.HistoryOutcome, error)
	Delete(ctx context.Context, id int64) (service.HistoryOutcome, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.SecretView, error)
	List(ctx context.Context) ([]models.SecretView, error)
}

// SecretHandler handles HTTP requests for stored secrets.
type SecretHandler struct {
	SecretService SecretService
	Logger        *zap.Logger
}

// CreateSecretRequest is the JSON payload for creating a secret.
type CreateSecretRequest struct {
	OwnerID  int64  `json:"owner_id"`
	Label    string `json:"label"`
	Password string `json:"password"`
}

// UpdateSecretResponse reports the updated secret and whether its prior
// value made it into history.
type UpdateSecretResponse struct {
	Secret          *models.SecretView `json:"secret"`
	HistoryRecorded bool               `json:"history_recorded"`
}

// DeleteSecretResponse reports whether the deleted value made it into history.
type DeleteSecretResponse struct {
	HistoryRecorded bool `json:"history_recorded"`
}

// Create handles POST /api/secrets.
func (h *SecretHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSecretRequest
	if !decode(r, &req) {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	view, err := h.SecretService.Create(r.Context(), req.OwnerID, req.Label, req.Password)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// Get handles GET /api/secrets/{id}.
func (h *SecretHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	view, err := h.SecretService.Read(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// List handles GET /api/secrets.
func (h *SecretHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.SecretService.List(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// ListByOwner handles GET /api/users/{id}/secrets.
func (h *SecretHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	views, err := h.SecretService.ListByOwner(r.Context(), ownerID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// Update handles PUT /api/secrets/{id}.
func (h *SecretHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var upd models.SecretUpdate
	if !decode(r, &upd) {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	view, outcome, err := h.SecretService.Update(r.Context(), id, upd)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, UpdateSecretResponse{Secret: view, HistoryRecorded: outcome.Recorded()})
}

// Delete handles DELETE /api/secrets/{id}.
func (h *SecretHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	outcome, err := h.SecretService.Delete(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteSecretResponse{HistoryRecorded: outcome.Recorded()})
}
