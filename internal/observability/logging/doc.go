// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the scraper.
//
// Key features:
//   - JSON and text output formats
//   - Run ID propagation, so every line of one scrape session can be correlated
//   - Context-aware logging
//   - Configurable log levels (LOG_LEVEL)
//
// Example usage:
//
//	import "news-scraper/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("scraper started", slog.String("version", "1.0"))
//	}
//
//	func runSession(ctx context.Context) {
//	    ctx = logging.ContextWithRunID(ctx, uuid.NewString())
//	    logger := logging.WithRunID(ctx, slog.Default())
//	    logger.Info("session started")
//	}
package logging
