// Package httptransport serves the read-only query API the dashboard
// layer consumes: entities by category, category counts, the collection
// log, and geocoded map markers. It is a thin layer over the artifact
// store; all the interesting work happened at collection time.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the query endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/entities", h.handleEntities)
	r.Get("/categories", h.handleCategories)
	r.Get("/log", h.handleLog)
	r.Get("/map/markers", h.handleMarkers)
	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
