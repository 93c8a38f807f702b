// Package connect defines the source connector contract and the shared
// rate-limited HTTP client connectors are built on. One connector exists
// per external register; each performs paginated retrieval and emits raw
// per-source records for the normalizer.
package connect

import (
	"context"
	"fmt"
	"strings"

	"kosmos/internal/domain"
)

// Raw is one unparsed record as the source returned it: decoded JSON
// object fields or CSV columns keyed by header name. Values are strings
// or decoded JSON values; the normalizer owns interpretation.
type Raw map[string]any

// String returns the value under key as a trimmed string, or "" when
// absent or not string-shaped.
func (r Raw) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return ""
	}
}

// Connector retrieves raw records from one external source. Collect is
// restartable: every call starts from page 0. Records are pushed through
// emit in source order; a non-nil emit error stops collection and is
// returned verbatim.
//
// Collect returns the number of records emitted alongside any classified
// error, so callers can log partial progress on failure.
type Connector interface {
	// Category is the canonical category this connector produces.
	Category() domain.Category

	// Source identifies the register for provenance and logging.
	Source() domain.SourceRef

	// Collect fetches all pages, emitting each raw record. Cancellation
	// is checked between requests.
	Collect(ctx context.Context, emit func(Raw) error) (int, error)
}

// Registry holds the configured connectors for a run, keyed by source
// name.
type Registry struct {
	connectors []Connector
	byName     map[string]Connector
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Connector)}
}

// Register adds a connector; duplicate source names are rejected.
func (r *Registry) Register(c Connector) error {
	name := c.Source().Name
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("connector %q already registered", name)
	}
	r.byName[name] = c
	r.connectors = append(r.connectors, c)
	return nil
}

// All returns connectors in registration order.
func (r *Registry) All() []Connector {
	out := make([]Connector, len(r.connectors))
	copy(out, r.connectors)
	return out
}
