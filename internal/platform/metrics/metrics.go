package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the collection pipeline. All
// methods are nil-safe so components can run without metrics wired.
type Metrics struct {
	// Raw records fetched and entities persisted, by source
	RecordsCollected  *prometheus.CounterVec
	EntitiesPersisted *prometheus.CounterVec

	// Connector failures by source and error class
	ConnectorErrors *prometheus.CounterVec

	// Transient retries by source
	Retries *prometheus.CounterVec

	// Outbound request latency by source
	RequestDuration *prometheus.HistogramVec

	// Full connector run latency by source
	RunDuration *prometheus.HistogramVec
}

// New creates and registers all collection pipeline metrics.
func New() *Metrics {
	return &Metrics{
		RecordsCollected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kosmos_records_collected_total",
			Help: "Raw records fetched from each source",
		}, []string{"source"}),

		EntitiesPersisted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kosmos_entities_persisted_total",
			Help: "Normalized entities written to artifacts per source",
		}, []string{"source"}),

		ConnectorErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kosmos_connector_errors_total",
			Help: "Connector failures by source and error class",
		}, []string{"source", "class"}),

		Retries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kosmos_connector_retries_total",
			Help: "Transient-error retries by source",
		}, []string{"source"}),

		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kosmos_request_duration_seconds",
			Help:    "Outbound HTTP request duration by source",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),

		RunDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kosmos_run_duration_seconds",
			Help:    "Full connector run duration by source",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"source"}),
	}
}

// IncRecords adds fetched raw records for a source.
func (m *Metrics) IncRecords(source string, n int) {
	if m != nil {
		m.RecordsCollected.WithLabelValues(source).Add(float64(n))
	}
}

// IncPersisted adds persisted entities for a source.
func (m *Metrics) IncPersisted(source string, n int) {
	if m != nil {
		m.EntitiesPersisted.WithLabelValues(source).Add(float64(n))
	}
}

// IncError records a connector failure.
func (m *Metrics) IncError(source, class string) {
	if m != nil {
		m.ConnectorErrors.WithLabelValues(source, class).Inc()
	}
}

// IncRetry records one transient retry.
func (m *Metrics) IncRetry(source string) {
	if m != nil {
		m.Retries.WithLabelValues(source).Inc()
	}
}

// ObserveRequest records one outbound request duration.
func (m *Metrics) ObserveRequest(source string, d time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(source).Observe(d.Seconds())
	}
}

// ObserveRun records a full connector run duration.
func (m *Metrics) ObserveRun(source string, d time.Duration) {
	if m != nil {
		m.RunDuration.WithLabelValues(source).Observe(d.Seconds())
	}
}
