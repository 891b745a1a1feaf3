// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"northbound-factor-lab/internal/domain"
)

// Metrics holds all Prometheus metrics for the application.
// Each instance owns its registry, so tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec
	ReportsGenerated  prometheus.Counter

	// Factor table metrics
	FactorRows     prometheus.Gauge
	DataGapDates   prometheus.Gauge
	SignalsEmitted *prometheus.CounterVec

	// Storage metrics
	StoreWriteDuration *prometheus.HistogramVec
	StoreWriteErrors   *prometheus.CounterVec
	StoreRowsWritten   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulPipeline prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "northbound_factor"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// Pipeline metrics
		PipelineRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by variant and status",
		}, []string{"variant", "status"}),
		PipelineDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"variant"}),
		ReportsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		// Factor table metrics
		FactorRows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "factor",
			Name:      "rows",
			Help:      "Rows in the most recently built factor table",
		}),
		DataGapDates: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "factor",
			Name:      "gap_dates",
			Help:      "Dates without a usable inflow_tense in the most recent build",
		}),
		SignalsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signal",
			Name:      "emitted_total",
			Help:      "Total number of classified rows by variant and signal",
		}, []string{"variant", "signal"}),

		// Storage metrics
		StoreWriteDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "write_duration_seconds",
			Help:      "Store write duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store"}),
		StoreWriteErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "write_errors_total",
			Help:      "Total number of failed store writes",
		}, []string{"store"}),
		StoreRowsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "rows_written_total",
			Help:      "Total number of rows written per store",
		}, []string{"store"}),

		// Health metrics
		LastSuccessfulPipeline: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordPipelineRun records a pipeline run. A successful run also stamps
// the last-success gauge with finishedAt.
func (m *Metrics) RecordPipelineRun(variant domain.Variant, status string, duration time.Duration, finishedAt time.Time) {
	m.PipelineRunsTotal.WithLabelValues(string(variant), status).Inc()
	m.PipelineDuration.WithLabelValues(string(variant)).Observe(duration.Seconds())
	if status == StatusSuccess {
		m.LastSuccessfulPipeline.Set(float64(finishedAt.Unix()))
	}
}

// Run statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// RecordFactorTable sets the factor table gauges.
func (m *Metrics) RecordFactorTable(rows, gaps int) {
	m.FactorRows.Set(float64(rows))
	m.DataGapDates.Set(float64(gaps))
}

// RecordSignals counts classified rows by signal.
func (m *Metrics) RecordSignals(variant domain.Variant, rows []domain.SignalRow) {
	for _, r := range rows {
		m.SignalsEmitted.WithLabelValues(string(variant), r.Sig.String()).Inc()
	}
}

// RecordStoreWrite records one bulk write.
func (m *Metrics) RecordStoreWrite(store string, rows int, duration time.Duration, err error) {
	m.StoreWriteDuration.WithLabelValues(store).Observe(duration.Seconds())
	if err != nil {
		m.StoreWriteErrors.WithLabelValues(store).Inc()
		return
	}
	m.StoreRowsWritten.WithLabelValues(store).Add(float64(rows))
}
