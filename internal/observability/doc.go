// Package observability provides the observability infrastructure of the scraper:
// structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - metrics: Prometheus metrics registry and recorders
//   - tracing: OpenTelemetry spans for sessions, attempts and pages
//
// Example usage:
//
//	import (
//	    "news-scraper/internal/observability/logging"
//	    "news-scraper/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("scraper started")
//
//	    metrics.RecordPageVisited()
//	}
package observability
