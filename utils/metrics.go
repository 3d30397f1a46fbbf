package utils

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "sample_monitor"

// Metrics collects run counters on a private registry. A batch run has no
// scrape endpoint, so the registry is written to a node-exporter textfile
// when the run finishes. Every method is safe on a nil *Metrics.
type Metrics struct {
	Registry *prometheus.Registry

	filesLoaded     *prometheus.CounterVec
	rowsLoaded      *prometheus.CounterVec
	rowsRemoved     *prometheus.CounterVec
	figuresRendered *prometheus.CounterVec
	sampleFailures  *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
}

// NewMetrics registers the pipeline collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		filesLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "files_loaded_total",
			Help:      "Raw measurement files read.",
		}, []string{"sample"}),
		rowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rows_loaded_total",
			Help:      "Rows read from raw measurement files.",
		}, []string{"sample"}),
		rowsRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rows_removed_total",
			Help:      "Rows deleted by flaw rules.",
		}, []string{"sample"}),
		figuresRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "figures_rendered_total",
			Help:      "Figures written, by view.",
		}, []string{"view"}),
		sampleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sample_failures_total",
			Help:      "Samples aborted, by failing stage.",
		}, []string{"stage"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time per pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
	}
	m.Registry.MustRegister(
		m.filesLoaded, m.rowsLoaded, m.rowsRemoved,
		m.figuresRendered, m.sampleFailures, m.stageDuration,
	)
	return m
}

func (m *Metrics) FileLoaded(sample string, rows int) {
	if m == nil {
		return
	}
	m.filesLoaded.WithLabelValues(sample).Inc()
	m.rowsLoaded.WithLabelValues(sample).Add(float64(rows))
}

func (m *Metrics) RowsRemoved(sample string, n int) {
	if m == nil {
		return
	}
	m.rowsRemoved.WithLabelValues(sample).Add(float64(n))
}

func (m *Metrics) FigureRendered(view string) {
	if m == nil {
		return
	}
	m.figuresRendered.WithLabelValues(view).Inc()
}

func (m *Metrics) SampleFailed(stage string) {
	if m == nil {
		return
	}
	if stage == "" {
		stage = "unknown"
	}
	m.sampleFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// WriteTextfile writes the registry in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
