package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/atinyakov/PassKeeper/internal/models"
	"go.uber.org/zap"
)

// UserService defines the account operations required by the HTTP handlers.
type UserService interface {
	Register(ctx context.Context, in models.NewUser) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id int64, upd models.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id int64) error
	CreatedBetween(ctx context.Context, from, to time.Time) ([]models.User, error)
	WithMinSecrets(ctx context.Context, n int) ([]models.User, error)
	WithLabelSuffix(ctx context.Context, suffix string) ([]models.User, error)
}

// UserHandler handles HTTP requests for accounts and login.
type UserHandler struct {
	UserService UserService
	Logger      *zap.Logger
}

// LoginRequest is the JSON payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

const (
	defaultMinSecrets  = 3
	defaultLabelSuffix = ".com"
)

// Register handles POST /api/users.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in models.NewUser
	if !decode(r, &in) {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	u, err := h.UserService.Register(r.Context(), in)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// Login handles POST /api/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(r, &req) || req.Email == "" || req.Password == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	u, err := h.UserService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Get handles GET /api/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	u, err := h.UserService.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.List(r.Context())
	h.respondUsers(w, users, err)
}

// Update handles PUT /api/users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	var upd models.UserUpdate
	if !decode(r, &upd) {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	u, err := h.UserService.Update(r.Context(), id, upd)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Delete handles DELETE /api/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if err := h.UserService.Delete(r.Context(), id); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreatedBetween handles GET /api/users/created?from=...&to=... with
// RFC 3339 timestamps.
func (h *UserHandler) CreatedBetween(w http.ResponseWriter, r *http.Request) {
	from, errFrom := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	to, errTo := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if errFrom != nil || errTo != nil {
		http.Error(w, "from and to must be RFC 3339 timestamps", http.StatusBadRequest)
		return
	}
	users, err := h.UserService.CreatedBetween(r.Context(), from, to)
	h.respondUsers(w, users, err)
}

// WithMinSecrets handles GET /api/users/with-secrets?min=N.
func (h *UserHandler) WithMinSecrets(w http.ResponseWriter, r *http.Request) {
	n := defaultMinSecrets
	if raw := r.URL.Query().Get("min"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "min must be an integer", http.StatusBadRequest)
			return
		}
		n = parsed
	}
	users, err := h.UserService.WithMinSecrets(r.Context(), n)
	h.respondUsers(w, users, err)
}

// WithLabelSuffix handles GET /api/users/with-suffix?suffix=.com.
func (h *UserHandler) WithLabelSuffix(w http.ResponseWriter, r *http.Request) {
	suffix := r.URL.Query().Get("suffix")
	if suffix == "" {
		suffix = defaultLabelSuffix
	}
	users, err := h.UserService.WithLabelSuffix(r.Context(), suffix)
	h.respondUsers(w, users, err)
}

func (h *UserHandler) respondUsers(w http.ResponseWriter, users []models.User, err error) {
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
