package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"kosmos/internal/collectlog"
	"kosmos/internal/domain"
	"kosmos/internal/geo"
	"kosmos/internal/readiness"
	"kosmos/internal/store"
	"kosmos/pkg/platform/sentinel"
)

// Handler is the thin HTTP layer over the persisted artifacts. It never
// mutates anything: entities are immutable once collected and the log is
// append-only, so no locking is needed here.
type Handler struct {
	artifacts *store.ArtifactStore
	log       collectlog.Store
	geocoder  *geo.Geocoder
	logger    *slog.Logger
}

func NewHandler(artifacts *store.ArtifactStore, log collectlog.Store, geocoder *geo.Geocoder, logger *slog.Logger) *Handler {
	return &Handler{
		artifacts: artifacts,
		log:       log,
		geocoder:  geocoder,
		logger:    logger,
	}
}

// handleEntities serves all entities, or one category's when ?category=
// is present.
func (h *Handler) handleEntities(w http.ResponseWriter, r *http.Request) {
	entities, err := h.loadEntities(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entities == nil {
		entities = []domain.Entity{}
	}
	h.writeJSON(w, http.StatusOK, entities)
}

func (h *Handler) loadEntities(ctx context.Context, category string) ([]domain.Entity, error) {
	if category == "" {
		return h.artifacts.LoadAll(ctx)
	}
	c := domain.Category(category)
	if !c.Valid() {
		return nil, errBadCategory
	}
	return h.artifacts.LoadCategory(ctx, c)
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	counts, err := h.artifacts.Categories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if counts == nil {
		counts = []store.CategoryCount{}
	}
	h.writeJSON(w, http.StatusOK, counts)
}

func (h *Handler) handleLog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.log.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.CollectionLogEntry{}
	}
	h.writeJSON(w, http.StatusOK, entries)
}

// Marker is one map pin: an entity joined with its approximate position
// and readiness label.
type Marker struct {
	Name      string          `json:"name"`
	Category  domain.Category `json:"category"`
	Town      string          `json:"town,omitempty"`
	Email     string          `json:"email,omitempty"`
	Readiness readiness.Level `json:"readiness"`
	Position  geo.Point       `json:"position"`
}

// handleMarkers serves geocodable entities as map markers. Entities
// without a postcode have no position, approximate or otherwise, and are
// omitted.
func (h *Handler) handleMarkers(w http.ResponseWriter, r *http.Request) {
	entities, err := h.loadEntities(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	markers := []Marker{}
	for _, entity := range entities {
		point, ok := h.geocoder.Geocode(entity.Address.Postcode)
		if !ok {
			continue
		}
		markers = append(markers, Marker{
			Name:      entity.Name,
			Category:  entity.Category,
			Town:      entity.Address.Town,
			Email:     entity.Contact.Email,
			Readiness: readiness.Classify(entity),
			Position:  point,
		})
	}
	h.writeJSON(w, http.StatusOK, markers)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

var errBadCategory = errors.New("unknown category")

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadCategory):
		status = http.StatusBadRequest
	case errors.Is(err, sentinel.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError && h.logger != nil {
		h.logger.ErrorContext(r.Context(), "query failed", "path", r.URL.Path, "error", err)
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
