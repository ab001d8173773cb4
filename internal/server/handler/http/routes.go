// Package http provides HTTP routing and handlers for the PassKeeper API.
package http

import (
	"net/http"

	"github.com/atinyakov/PassKeeper/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers bundles the route handlers mounted by NewRouter.
type Handlers struct {
	Users      *UserHandler
	Secrets    *SecretHandler
	History    *HistoryHandler
	Categories *CategoryHandler
}

// MaxBodyBytes caps the size of a request body.
const MaxBodyBytes = 1 << 20

// NewRouter constructs the HTTP handler serving the API under /api.
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") rejects non-JSON bodies
//  2. RequestSize(MaxBodyBytes) limits how much of a body is read
//  3. WithRequestLogging(logger) logs every request with its ID
//  4. Recoverer turns handler panics into 500 responses
func NewRouter(h Handlers, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(chiMiddleware.RequestSize(MaxBodyBytes))
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.Users.Login)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.Users.Register)
			r.Get("/", h.Users.List)
			r.Get("/created", h.Users.CreatedBetween)
			r.Get("/with-secrets", h.Users.WithMinSecrets)
			r.Get("/with-suffix", h.Users.WithLabelSuffix)
			r.Get("/{id}", h.Users.Get)
			r.Put("/{id}", h.Users.Update)
			r.Delete("/{id}", h.Users.Delete)
			r.Get("/{id}/secrets", h.Secrets.ListByOwner)
		})

		r.Route("/secrets", func(r chi.Router) {
			r.Post("/", h.Secrets.Create)
			r.Get("/", h.Secrets.List)
			r.Get("/{id}", h.Secrets.Get)
			r.Put("/{id}", h.Secrets.Update)
			r.Delete("/{id}", h.Secrets.Delete)
			r.Get("/{id}/history", h.History.ForSecret)
			r.Get("/{id}/categories", h.Categories.ForSecret)
		})

		r.Route("/history", func(r chi.Router) {
			r.Post("/", h.History.Record)
			r.Get("/", h.History.All)
			r.Get("/most-changed", h.History.MostChanged)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", h.Categories.Create)
			r.Get("/", h.Categories.List)
			r.Get("/search/{keyword}", h.Categories.Search)
			r.Get("/{id}", h.Categories.Get)
			r.Put("/{id}", h.Categories.Update)
			r.Delete("/{id}", h.Categories.Delete)
		})

		r.Route("/secret-categories", func(r chi.Router) {
			r.Post("/", h.Categories.Link)
			r.Get("/", h.Categories.Links)
			r.Delete("/", h.Categories.Unlink)
		})
	})

	return r
}
