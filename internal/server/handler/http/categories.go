package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/PassKeeper/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CategoryService defines the category operations required by the HTTP handlers.
type CategoryService interface {
	Create(ctx context.Context, name string) (*models.Category, error)
	Get(ctx context.Context, id int64) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Search(ctx context.Context, keyword string) ([]models.Category, error)
	Update(ctx context.Context, id int64, name *string) (*models.Category, error)
	Delete(ctx context.Context, id int64) error
	Link(ctx context.Context, link models.SecretCategory) error
	Unlink(ctx context.Context, link models.SecretCategory) error
	Links(ctx context.Context) ([]models.SecretCategory, error)
	ForSecret(ctx context.Context, secretID int64) ([]models.Category, error)
}

// CategoryHandler handles HTTP requests for categories and their links.
type CategoryHandler struct {
	CategoryService CategoryService
	Logger          *zap.Logger
}

// CategoryRequest is the JSON payload for creating or renaming a category.
type CategoryRequest struct {
	Name *string `json:"name"`
}

// Create handles POST /api/categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decode(r, &req) || req.Name == nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	c, err := h.CategoryService.Create(r.Context(), *req.Name)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// Get handles GET /api/categories/{id}.
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	c, err := h.CategoryService.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// List handles GET /api/categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	cats, err := h.CategoryService.List(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

// Search handles GET /api/categories/search/{keyword}.
func (h *CategoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	cats, err := h.CategoryService.Search(r.Context(), chi.URLParam(r, "keyword"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

// Update handles PUT /api/categories/{id}.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var req CategoryRequest
	if !decode(r, &req) {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	c, err := h.CategoryService.Update(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /api/categories/{id}.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.CategoryService.Delete(r.Context(), id); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ForSecret handles GET /api/secrets/{id}/categories.
func (h *CategoryHandler) ForSecret(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	cats, err := h.CategoryService.ForSecret(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

// Link handles POST /api/secret-categories.
func (h *CategoryHandler) Link(w http.ResponseWriter, r *http.Request) {
	var link models.SecretCategory
	if !decode(r, &link) {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.CategoryService.Link(r.Context(), link); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

// Unlink handles DELETE /api/secret-categories.
func (h *CategoryHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	var link models.SecretCategory
	if !decode(r, &link) {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := h.CategoryService.Unlink(r.Context(), link); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Links handles GET /api/secret-categories.
func (h *CategoryHandler) Links(w http.ResponseWriter, r *http.Request) {
	links, err := h.CategoryService.Links(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}
