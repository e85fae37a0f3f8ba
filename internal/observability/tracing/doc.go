// Package tracing provides OpenTelemetry tracing integration.
//
// Spans are created for every scrape session, every pipeline attempt and every
// result page, and for requests to the worker's health and metrics servers.
// No exporter is configured here; the process installs a TracerProvider if it
// wants spans shipped anywhere.
//
// Example usage:
//
//	import "news-scraper/internal/observability/tracing"
//
//	func collectPage(ctx context.Context) (err error) {
//	    ctx, span := tracing.StartSpan(ctx, "scrape.page")
//	    defer func() { tracing.EndSpan(span, err) }()
//	    // ... process page ...
//	}
package tracing
