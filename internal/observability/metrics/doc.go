// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all scraper metrics including:
//   - Session metrics (runs, attempts, duration, exported records)
//   - Pagination and extraction metrics (pages, card outcomes, field fallbacks, popups)
//   - Image download metrics (result, duration, size, circuit state)
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint of the worker.
//
// Example usage:
//
//	import "news-scraper/internal/observability/metrics"
//
//	func collectPage() {
//	    metrics.RecordPageVisited()
//	    metrics.RecordArticleOutcome(metrics.OutcomeAdmitted)
//	}
package metrics
