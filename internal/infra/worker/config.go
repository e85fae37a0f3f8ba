package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"news-scraper/internal/pkg/config"
)

// WorkerConfig holds the configuration of the scheduled scraper.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
//
// The run settings themselves (search phrase, delta, output) come from
// config.LoadScraperConfig; WorkerConfig only controls scheduling and the
// operational HTTP endpoints.
type WorkerConfig struct {
	// CronSchedule is the cron expression for job scheduling.
	// Format: "minute hour day month weekday"
	// Default: "0 6 * * *"
	CronSchedule string

	// Timezone is the IANA timezone name the schedule is evaluated in.
	// Default: "UTC"
	Timezone string

	// RunTimeout bounds a single scheduled run, retries included.
	// Range: 1m-4h, Default: 30m
	RunTimeout time.Duration

	// HealthPort is the port of the liveness/readiness server.
	// Range: 1024-65535, Default: 9091
	HealthPort int

	// MetricsPort is the port of the Prometheus /metrics server.
	// Range: 1024-65535, Default: 9090
	MetricsPort int
}

// DefaultConfig returns a WorkerConfig with the default schedule: one run a day at 06:00 UTC.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule: "0 6 * * *",
		Timezone:     "UTC",
		RunTimeout:   30 * time.Minute,
		HealthPort:   9091,
		MetricsPort:  9090,
	}
}

// Validate checks every field and returns all failures together.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDuration(c.RunTimeout, 1*time.Minute, 4*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("run timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if len(errs) == 0 && c.HealthPort == c.MetricsPort {
		errs = append(errs, fmt.Errorf("health port and metrics port must differ, both are %d", c.HealthPort))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// Location resolves Timezone, falling back to UTC.
func (c *WorkerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadConfigFromEnv loads the worker configuration from environment variables.
//
// Fail-open: an invalid value falls back to its default, a warning is logged
// and the fallback is counted in metrics. The returned error is always nil.
//
// Environment variables:
//   - CRON_SCHEDULE: Cron expression (default: "0 6 * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default: "UTC")
//   - RUN_TIMEOUT: Duration string, e.g. "45m" (default: 30m)
//   - WORKER_HEALTH_PORT: Integer 1024-65535 (default: 9091)
//   - METRICS_PORT: Integer 1024-65535 (default: 9090)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false
	observe := func(field string, result config.ConfigLoadResult) config.ConfigLoadResult {
		if metrics.Observe(logger, field, result) {
			fallbackApplied = true
		}
		return result
	}

	cfg.CronSchedule = observe("cron_schedule",
		config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)).Value.(string)
	cfg.Timezone = observe("timezone",
		config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)).Value.(string)
	cfg.RunTimeout = observe("run_timeout",
		config.LoadEnvDuration("RUN_TIMEOUT", cfg.RunTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, 1*time.Minute, 4*time.Hour)
		})).Value.(time.Duration)

	port := func(v int) error { return config.ValidateIntRange(v, 1024, 65535) }
	cfg.HealthPort = observe("health_port",
		config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, port)).Value.(int)
	cfg.MetricsPort = observe("metrics_port",
		config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, port)).Value.(int)

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()
	return &cfg, nil
}
