package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"news-scraper/internal/observability/tracing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newMetricsHandler exposes the default Prometheus registry on /metrics.
func newMetricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return tracing.Middleware("worker-metrics", mux)
}

// startMetricsServer serves /metrics on port until ctx is cancelled, then
// shuts down within 5 seconds. It returns http.ErrServerClosed after a
// graceful shutdown.
func startMetricsServer(ctx context.Context, port int, logger *slog.Logger) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      newMetricsHandler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logger.Info("metrics server shutdown initiated")
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
			return err
		}
		logger.Info("metrics server stopped")
		return http.ErrServerClosed
	case err := <-errChan:
		return err
	}
}
