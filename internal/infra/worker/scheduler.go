package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job performs one scheduled run and returns the number of articles it exported.
type Job func(ctx context.Context) (int, error)

// Scheduler triggers Job on the configured cron schedule. Runs never overlap:
// a tick that fires while the previous run is active is skipped and counted.
type Scheduler struct {
	cfg     *WorkerConfig
	job     Job
	metrics *WorkerMetrics
	health  *HealthServer
	logger  *slog.Logger
	cron    *cron.Cron
	baseCtx context.Context
	now     func() time.Time
}

// NewScheduler registers job with a cron scheduler evaluated in cfg's timezone.
// It fails if the schedule cannot be parsed.
func NewScheduler(cfg *WorkerConfig, job Job, metrics *WorkerMetrics, health *HealthServer, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cfg:     cfg,
		job:     job,
		metrics: metrics,
		health:  health,
		logger:  logger,
		baseCtx: context.Background(),
		now:     time.Now,
	}

	cl := &cronLogger{logger: logger, metrics: metrics}
	s.cron = cron.New(
		cron.WithLocation(cfg.Location()),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := s.cron.AddFunc(cfg.CronSchedule, func() {
		_ = s.RunOnce(s.baseCtx)
	}); err != nil {
		return nil, fmt.Errorf("add cron job %q: %w", cfg.CronSchedule, err)
	}
	return s, nil
}

// Run starts the schedule and blocks until ctx is cancelled. Cancellation also
// cancels an in-flight run; Run returns once that run has finished.
func (s *Scheduler) Run(ctx context.Context) error {
	s.baseCtx = ctx
	s.cron.Start()
	s.health.SetReady(true)
	s.logger.Info("worker started",
		slog.String("schedule", s.cfg.CronSchedule),
		slog.String("timezone", s.cfg.Timezone))

	<-ctx.Done()

	s.health.SetReady(false)
	<-s.cron.Stop().Done()
	s.logger.Info("worker stopped")
	return nil
}

// RunOnce executes the job under the configured run timeout and records its outcome.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	start := s.now()
	s.logger.Info("scheduled scrape started")

	articles, err := s.job(ctx)
	finished := s.now()
	status := RunStatus{
		Status:     "success",
		StartedAt:  start,
		FinishedAt: finished,
		Articles:   articles,
	}
	if err != nil {
		status.Status = "failure"
		status.Error = err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			status.Status = "timeout"
		}
		s.logger.Error("scheduled scrape failed",
			slog.String("status", status.Status),
			slog.Any("error", err),
			slog.Duration("duration", finished.Sub(start)))
	} else {
		s.logger.Info("scheduled scrape completed",
			slog.Int("articles", articles),
			slog.Duration("duration", finished.Sub(start)))
	}

	s.metrics.RecordRun(status.Status, finished.Sub(start), articles)
	s.health.SetLastRun(status)
	return err
}

// cronLogger adapts slog to cron.Logger and counts skipped ticks.
type cronLogger struct {
	logger  *slog.Logger
	metrics *WorkerMetrics
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		l.metrics.RecordSkipped()
		l.logger.Warn("scheduled scrape skipped, previous run still active")
		return
	}
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{slog.Any("error", err)}, keysAndValues...)...)
}
