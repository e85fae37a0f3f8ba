package worker

import (
	"time"

	"news-scraper/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics provides Prometheus metrics for the scheduled scraper.
//
// Embedded metrics (from ConfigMetrics):
//   - worker_config_load_timestamp
//   - worker_config_validation_errors_total
//   - worker_config_fallbacks_total
//   - worker_config_fallback_active
//
// Worker-specific metrics:
//   - worker_scrape_runs_total: scheduled runs by status (success/failure/skipped)
//   - worker_scrape_run_duration_seconds: duration of a scheduled run
//   - worker_scrape_articles_total: articles exported across all runs
//   - worker_scrape_last_success_timestamp: Unix timestamp of the last successful run
type WorkerMetrics struct {
	*config.ConfigMetrics

	RunsTotal            *prometheus.CounterVec
	RunDurationSeconds   prometheus.Histogram
	ArticlesTotal        prometheus.Counter
	LastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates and registers the worker metrics with the default registry.
// It must be called once per process.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_scrape_runs_total",
			Help: "Total number of scheduled scrape runs by status",
		}, []string{"status"}),

		RunDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_scrape_run_duration_seconds",
			Help:    "Duration of scheduled scrape runs in seconds",
			Buckets: []float64{10, 30, 60, 300, 600, 1800, 3600},
		}),

		ArticlesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_scrape_articles_total",
			Help: "Total number of articles exported by scheduled runs",
		}),

		LastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_scrape_last_success_timestamp",
			Help: "Unix timestamp of the last successful scheduled run",
		}),
	}
}

// RecordRun records the outcome of one scheduled run.
// articles is only counted for successful runs.
func (m *WorkerMetrics) RecordRun(status string, duration time.Duration, articles int) {
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDurationSeconds.Observe(duration.Seconds())
	if status == "success" {
		m.ArticlesTotal.Add(float64(articles))
		m.LastSuccessTimestamp.SetToCurrentTime()
	}
}

// RecordSkipped counts a tick dropped because the previous run was still active.
func (m *WorkerMetrics) RecordSkipped() {
	m.RunsTotal.WithLabelValues("skipped").Inc()
}
