// Package store persists collection-run output: one JSON array of
// normalized entities per source per run, with a .metadata.json sidecar,
// and serves the read-only queries the dashboard layer consumes.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"kosmos/internal/domain"
	"kosmos/pkg/platform/sentinel"
)

// Metadata is the sidecar written next to every artifact.
type Metadata struct {
	CollectionDate time.Time       `json:"collection_date"`
	Source         string          `json:"source"`
	Category       domain.Category `json:"category"`
	RecordCount    int             `json:"record_count"`
}

// ArtifactStore writes and reads per-run entity snapshots under a data
// directory, one subdirectory per category. Entities are immutable once
// written; every write replaces the whole per-source snapshot.
type ArtifactStore struct {
	dir string
}

// New creates the store root if needed.
func New(dir string) (*ArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &ArtifactStore{dir: dir}, nil
}

// WriteSnapshot persists one source's entities and sidecar atomically
// (temp file + rename), so readers never observe a half-written array.
func (s *ArtifactStore) WriteSnapshot(_ context.Context, category domain.Category, source string, entities []domain.Entity, collectedAt time.Time) error {
	dir := filepath.Join(s.dir, string(category))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create category dir: %w", err)
	}

	base := filepath.Join(dir, slug(source))
	if entities == nil {
		entities = []domain.Entity{}
	}
	if err := writeJSON(base+".json", entities); err != nil {
		return err
	}
	return writeJSON(base+".metadata.json", Metadata{
		CollectionDate: collectedAt,
		Source:         source,
		Category:       category,
		RecordCount:    len(entities),
	})
}

// LoadCategory returns every entity persisted for one category across
// all of its sources. An unknown category is ErrNotFound.
func (s *ArtifactStore) LoadCategory(_ context.Context, category domain.Category) ([]domain.Entity, error) {
	dir := filepath.Join(s.dir, string(category))
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan category dir: %w", err)
	}

	var entities []domain.Entity
	found := false
	for _, file := range files {
		if strings.HasSuffix(file, ".metadata.json") {
			continue
		}
		found = true
		var batch []domain.Entity
		if err := readJSON(file, &batch); err != nil {
			return nil, err
		}
		entities = append(entities, batch...)
	}
	if !found {
		return nil, fmt.Errorf("category %s: %w", category, sentinel.ErrNotFound)
	}
	return entities, nil
}

// LoadAll returns every persisted entity across all categories.
func (s *ArtifactStore) LoadAll(ctx context.Context) ([]domain.Entity, error) {
	categories, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	var all []domain.Entity
	for _, c := range categories {
		batch, err := s.LoadCategory(ctx, c.Category)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
	}
	return all, nil
}

// CategoryCount pairs a category with its persisted record count.
type CategoryCount struct {
	Category domain.Category `json:"category"`
	Count    int             `json:"count"`
}

// Categories lists persisted categories with counts, sorted by name.
// Counts come from the metadata sidecars, not by loading artifacts.
func (s *ArtifactStore) Categories(_ context.Context) ([]CategoryCount, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scan data dir: %w", err)
	}

	var counts []CategoryCount
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		category := domain.Category(entry.Name())
		if !category.Valid() {
			continue
		}
		sidecars, err := filepath.Glob(filepath.Join(s.dir, entry.Name(), "*.metadata.json"))
		if err != nil {
			return nil, fmt.Errorf("scan sidecars: %w", err)
		}
		total := 0
		seen := false
		for _, sidecar := range sidecars {
			var meta Metadata
			if err := readJSON(sidecar, &meta); err != nil {
				return nil, err
			}
			total += meta.RecordCount
			seen = true
		}
		if seen {
			counts = append(counts, CategoryCount{Category: category, Count: total})
		}
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Category < counts[j].Category })
	return counts, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// slug turns a source name into a stable filename.
func slug(name string) string {
	name = strings.ToLower(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
