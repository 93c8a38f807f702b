// Package run orchestrates one collection run: every configured
// connector executes as an independent unit of work in a bounded pool,
// its raw records flow through the normalization pipeline, and each
// connector run ends with exactly one collection-log entry no matter how
// it went.
package run

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"kosmos/internal/collectlog"
	"kosmos/internal/connect"
	"kosmos/internal/domain"
	"kosmos/internal/normalize"
	"kosmos/internal/platform/metrics"
	"kosmos/internal/store"
)

// SourceResult summarizes one connector's run.
type SourceResult struct {
	Source    string           `json:"source"`
	Category  domain.Category  `json:"category"`
	Collected int              `json:"collected"`
	Persisted int              `json:"persisted"`
	Skipped   int              `json:"skipped"`
	Status    domain.RunStatus `json:"status"`
	Err       string           `json:"error,omitempty"`
}

// Summary is the outcome of a whole collection run.
type Summary struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Results    []SourceResult `json:"results"`
}

// Total returns the number of entities persisted across all sources.
func (s Summary) Total() int {
	n := 0
	for _, r := range s.Results {
		n += r.Persisted
	}
	return n
}

// Failed reports whether any connector ended in error status.
func (s Summary) Failed() bool {
	for _, r := range s.Results {
		if r.Status == domain.RunError {
			return true
		}
	}
	return false
}

// Runner wires connectors to the pipeline and the stores.
type Runner struct {
	registry   *connect.Registry
	normalizer *normalize.Normalizer
	artifacts  *store.ArtifactStore
	log        collectlog.Store
	metrics    *metrics.Metrics
	logger     *slog.Logger
	pipeline   string
	workers    int
	now        func() time.Time
}

// Option configures the Runner.
type Option func(*Runner)

// WithLogger sets the run logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithWorkers bounds the connector pool; default 4.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithClock swaps the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New builds a Runner. The pipeline id prefixes every record's
// provenance pipeline name.
func New(registry *connect.Registry, normalizer *normalize.Normalizer, artifacts *store.ArtifactStore, log collectlog.Store, pipeline string, opts ...Option) *Runner {
	r := &Runner{
		registry:   registry,
		normalizer: normalizer,
		artifacts:  artifacts,
		log:        log,
		pipeline:   pipeline,
		workers:    4,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes all connectors in a bounded parallel pool. Connectors are
// isolated: an auth failure or abort in one never cancels its siblings.
// Cancelling ctx stops every connector between pages; each still flushes
// its log entry for whatever it had collected.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	connectors := r.registry.All()
	summary := Summary{
		RunID:     uuid.NewString(),
		StartedAt: r.now(),
		Results:   make([]SourceResult, len(connectors)),
	}

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, connector := range connectors {
		g.Go(func() error {
			summary.Results[i] = r.runConnector(ctx, connector)
			return nil
		})
	}
	// Connector failures are reported per source, never as a group error.
	_ = g.Wait()

	summary.FinishedAt = r.now()
	return summary, nil
}

// runConnector executes one connector run start to finish: collect,
// normalize, stamp, persist, log. Always appends exactly one log entry.
func (r *Runner) runConnector(ctx context.Context, connector connect.Connector) SourceResult {
	src := connector.Source()
	started := r.now()
	result := SourceResult{
		Source:   src.Name,
		Category: connector.Category(),
	}

	var entities []domain.Entity
	_, err := connector.Collect(ctx, func(raw connect.Raw) error {
		result.Collected++
		entity, ok := r.buildEntity(ctx, raw, connector.Category(), src)
		if !ok {
			result.Skipped++
			return nil
		}
		entities = append(entities, entity)
		return nil
	})
	r.metrics.IncRecords(src.Name, result.Collected)

	// Connectors that drop malformed records before emitting report the
	// count themselves; fold it into the skip tally.
	if counter, ok := connector.(interface{ Skipped() int }); ok {
		result.Skipped += counter.Skipped()
	}

	// Persist whatever survived, even on a failed or cancelled run, so
	// the artifact matches the log entry. Entities snapshot under their
	// own normalized category: a parliament run spans mp and lord, and
	// each must be loadable on its own.
	if len(entities) > 0 || err == nil {
		grouped := map[domain.Category][]domain.Entity{connector.Category(): nil}
		for _, entity := range entities {
			grouped[entity.Category] = append(grouped[entity.Category], entity)
		}
		for category, batch := range grouped {
			if werr := r.artifacts.WriteSnapshot(ctx, category, src.Name, batch, started); werr != nil {
				err = errors.Join(err, werr)
				continue
			}
			result.Persisted += len(batch)
			r.metrics.IncPersisted(src.Name, len(batch))
		}
	}

	switch {
	case err != nil:
		result.Status = domain.RunError
		result.Err = err.Error()
		r.metrics.IncError(src.Name, string(connect.ClassOf(err)))
	case result.Skipped > 0:
		result.Status = domain.RunPartial
	default:
		result.Status = domain.RunSuccess
	}

	entry := domain.CollectionLogEntry{
		Timestamp: r.now(),
		Category:  connector.Category(),
		Source:    src.Name,
		Records:   result.Persisted,
		Status:    result.Status,
		Detail:    result.Err,
	}
	if lerr := r.log.Append(context.WithoutCancel(ctx), entry); lerr != nil && r.logger != nil {
		r.logger.ErrorContext(ctx, "collection log append failed",
			"source", src.Name, "error", lerr)
	}

	r.metrics.ObserveRun(src.Name, r.now().Sub(started))
	if r.logger != nil {
		r.logger.InfoContext(ctx, "connector run finished",
			"source", src.Name,
			"category", connector.Category(),
			"collected", result.Collected,
			"persisted", result.Persisted,
			"skipped", result.Skipped,
			"status", result.Status,
		)
	}
	return result
}

// buildEntity runs one raw record through the full pipeline. Records the
// normalizer discards (no parseable structure, placeholder person names)
// are skipped, not fatal.
func (r *Runner) buildEntity(ctx context.Context, raw connect.Raw, category domain.Category, src domain.SourceRef) (domain.Entity, bool) {
	now := r.now()

	entity, err := r.normalizer.Normalize(raw, category)
	if err != nil {
		if r.logger != nil && !errors.Is(err, normalize.ErrEmptyName) {
			r.logger.DebugContext(ctx, "record discarded", "category", category, "error", err)
		}
		return domain.Entity{}, false
	}

	entity.ID = uuid.NewString()
	entity.Source = src
	entity.Source.Date = now.Format("2006-01-02")

	// Confidence is computed exactly once here; the record is immutable
	// after persistence.
	entity.ConfidenceScore = normalize.ScoreFor(entity)

	prov, err := normalize.Tag(entity, r.pipeline+"_"+string(entity.Category)+"_collector", now)
	if err != nil {
		if r.logger != nil {
			r.logger.WarnContext(ctx, "provenance tagging failed", "category", category, "error", err)
		}
		return domain.Entity{}, false
	}
	entity.Provenance = prov
	entity.GDPRFlags = normalize.Flag(entity)

	if err := entity.Validate(); err != nil {
		return domain.Entity{}, false
	}
	return entity, true
}
