// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session metrics track whole scrape runs and their attempts
var (
	// SessionsTotal counts finished scrape sessions by status (success, exhausted, failure)
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_sessions_total",
			Help: "Total number of scrape sessions by final status",
		},
		[]string{"status"},
	)

	// SessionDuration measures the wall time of a scrape session
	SessionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_session_duration_seconds",
			Help:    "Duration of a scrape session in seconds",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200, 1800, 3600},
		},
	)

	// SessionAttemptsTotal counts pipeline attempts by result (success, failure)
	SessionAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_session_attempts_total",
			Help: "Total number of scrape pipeline attempts by result",
		},
		[]string{"result"},
	)

	// RecordsExported tracks the number of records written by the last successful session
	RecordsExported = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scraper_records_exported",
			Help: "Number of article records exported by the last successful session",
		},
	)
)

// Page and article metrics track the pagination loop and extraction
var (
	// PagesVisitedTotal counts result pages processed
	PagesVisitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_pages_visited_total",
			Help: "Total number of search result pages processed",
		},
	)

	// ArticlesProcessedTotal counts result cards by outcome (admitted, out_of_window, no_date)
	ArticlesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_articles_processed_total",
			Help: "Total number of search result cards processed by outcome",
		},
		[]string{"outcome"},
	)

	// FieldFallbacksTotal counts fields that fell back to the N/A placeholder
	FieldFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_field_fallbacks_total",
			Help: "Total number of extracted fields that fell back to N/A",
		},
		[]string{"field"},
	)

	// PopupsDismissedTotal counts overlays that were found and closed
	PopupsDismissedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_popups_dismissed_total",
			Help: "Total number of overlays dismissed",
		},
		[]string{"overlay"},
	)
)

// Image metrics track the image download client
var (
	// ImageDownloadsTotal counts image downloads by result (success, failure)
	ImageDownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_image_downloads_total",
			Help: "Total number of image download attempts by result",
		},
		[]string{"result"},
	)

	// ImageDownloadDuration measures time to download one image
	ImageDownloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_image_download_duration_seconds",
			Help:    "Time taken to download an image",
			Buckets: []float64{0.05, 0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4},
		},
	)

	// ImageDownloadSize measures downloaded image size in bytes
	ImageDownloadSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_image_download_size_bytes",
			Help:    "Downloaded image size in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 15), // 1KiB to 16MiB
		},
	)

	// ImageCircuitOpen is 1 while the image download circuit breaker is open
	ImageCircuitOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scraper_image_circuit_open",
			Help: "1 if the image download circuit breaker is open, 0 otherwise",
		},
	)
)
