package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/atinyakov/PassKeeper/internal/apperr"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// writeError maps a classified error onto a status code. Server-side
// failures are logged and answered with a generic message.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch apperr.KindOf(err) {
	case apperr.ErrValidation:
		http.Error(w, validationMessage(err), http.StatusBadRequest)
	case apperr.ErrAuth:
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	case apperr.ErrNotFound:
		http.Error(w, "not found", http.StatusNotFound)
	case apperr.ErrConflict:
		http.Error(w, "already exists", http.StatusConflict)
	default:
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func validationMessage(err error) string {
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Err != nil {
		return ae.Err.Error()
	}
	return "invalid request"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) bool {
	return json.NewDecoder(r.Body).Decode(v) == nil
}

// pathID reads a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
