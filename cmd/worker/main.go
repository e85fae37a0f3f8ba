// Command worker runs the scraper on a cron schedule and serves health and
// Prometheus endpoints while it waits.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"news-scraper/internal/app"
	"news-scraper/internal/config"
	workerPkg "news-scraper/internal/infra/worker"
	"news-scraper/internal/observability/logging"
	pkgconfig "news-scraper/internal/pkg/config"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("worker exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		return fmt.Errorf("load worker configuration: %w", err)
	}
	if err := workerConfig.Validate(); err != nil {
		return fmt.Errorf("worker configuration: %w", err)
	}
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("run_timeout", workerConfig.RunTimeout),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Int("metrics_port", workerConfig.MetricsPort))

	// The scrape settings are checked once at startup so a bad phrase or
	// selector file fails fast instead of at the first tick.
	scraperMetrics := pkgconfig.NewConfigMetrics("scraper")
	scraperConfig, err := config.LoadScraperConfig(logger, scraperMetrics)
	if err != nil {
		return fmt.Errorf("load scraper configuration: %w", err)
	}
	if _, err := app.NewRunner(scraperConfig, logger); err != nil {
		return fmt.Errorf("scraper configuration: %w", err)
	}

	job := func(ctx context.Context) (int, error) {
		// A fresh runner per tick keeps runs independent of each other.
		runner, err := app.NewRunner(scraperConfig, logger)
		if err != nil {
			return 0, err
		}
		report, err := runner.Run(ctx)
		if err != nil {
			return 0, err
		}
		return len(report.Records), nil
	}

	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", workerConfig.HealthPort), logger)
	scheduler, err := workerPkg.NewScheduler(workerConfig, job, workerMetrics, healthServer, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreClosed(healthServer.Start(gctx))
	})
	g.Go(func() error {
		return ignoreClosed(startMetricsServer(gctx, workerConfig.MetricsPort, logger))
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	return g.Wait()
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
