package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"imagecompressor/internal/middleware"
)

// RegisterRoutes mounts the API on r. limit wraps the endpoints that accept
// uploads; it may be nil.
func (h *Handler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	// Health check
	r.Get("/health", h.HealthCheck)

	r.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Post("/compress", h.Compress)
		r.Post("/jobs", h.CreateJob)
	})

	r.Get("/jobs/{id}", h.GetJob)
	r.Get("/jobs/{id}/artifact", h.GetJobArtifact)
	r.Get("/stats", h.Stats)
}

// NewRouter returns a chi router with request ids, panic recovery, request
// logging and the API routes.
func (h *Handler) NewRouter(limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(h.log))
	h.RegisterRoutes(r, limit)
	return r
}
