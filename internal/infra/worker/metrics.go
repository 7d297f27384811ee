package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wang2-lat/my-personal-bloomberg/internal/pkg/config"
)

// WorkerMetrics provides Prometheus metrics for the worker process. It
// embeds ConfigMetrics for the fail-open configuration counters and adds
// scheduled-run metrics on top.
//
// Embedded metrics (from ConfigMetrics):
//   - worker_config_load_timestamp
//   - worker_config_validation_errors_total
//   - worker_config_fallbacks_total
//   - worker_config_fallback_active
//
// Run metrics:
//   - worker_pipeline_runs_total: runs by status (success/failure)
//   - worker_pipeline_run_duration_seconds: end-to-end run duration
//   - worker_pipeline_items_enriched_total: news items enriched across runs
//   - worker_pipeline_last_success_timestamp: Unix time of the last good run
type WorkerMetrics struct {
	*config.ConfigMetrics

	// PipelineRunsTotal counts scheduled runs by outcome.
	PipelineRunsTotal *prometheus.CounterVec

	// PipelineRunDurationSeconds observes end-to-end run duration. Buckets
	// cover a single-item quick run up to a timed-out full run.
	PipelineRunDurationSeconds prometheus.Histogram

	// PipelineItemsEnrichedTotal counts news items enriched across all runs.
	PipelineItemsEnrichedTotal prometheus.Counter

	// PipelineLastSuccessTimestamp records when a run last completed cleanly.
	PipelineLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates the worker metrics. Registration happens via
// promauto at construction time.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_pipeline_runs_total",
			Help: "Total number of pipeline runs by status (success/failure)",
		}, []string{"status"}),

		PipelineRunDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_pipeline_run_duration_seconds",
			Help:    "End-to-end duration of pipeline runs in seconds",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		}),

		PipelineItemsEnrichedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_pipeline_items_enriched_total",
			Help: "Total number of news items enriched across all runs",
		}),

		PipelineLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_pipeline_last_success_timestamp",
			Help: "Unix timestamp of the last successful pipeline run",
		}),
	}
}

// MustRegister is a no-op kept for symmetry with the usual metrics
// initialization pattern; promauto already registered everything.
func (m *WorkerMetrics) MustRegister() {}

// RecordRun increments the run counter with status "success" or "failure".
func (m *WorkerMetrics) RecordRun(status string) {
	m.PipelineRunsTotal.WithLabelValues(status).Inc()
}

// RecordRunDuration observes one run's duration in seconds.
func (m *WorkerMetrics) RecordRunDuration(seconds float64) {
	m.PipelineRunDurationSeconds.Observe(seconds)
}

// RecordItemsEnriched adds the items enriched in one run to the total.
func (m *WorkerMetrics) RecordItemsEnriched(count int) {
	m.PipelineItemsEnrichedTotal.Add(float64(count))
}

// RecordLastSuccess stamps the last successful run at now.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.PipelineLastSuccessTimestamp.SetToCurrentTime()
}
