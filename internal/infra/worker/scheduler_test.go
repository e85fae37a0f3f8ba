package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T, job Job) (*Scheduler, *WorkerMetrics, *HealthServer) {
	t.Helper()
	cfg := DefaultConfig()
	metrics := newIsolatedMetrics(t)
	health := NewHealthServer(":0", discardLogger())

	s, err := NewScheduler(&cfg, job, metrics, health, discardLogger())
	require.NoError(t, err)

	start := time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)
	calls := 0
	s.now = func() time.Time {
		calls++
		return start.Add(time.Duration(calls-1) * 90 * time.Second)
	}
	return s, metrics, health
}

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CronSchedule = "whenever"

	_, err := NewScheduler(&cfg, func(context.Context) (int, error) { return 0, nil },
		newIsolatedMetrics(t), NewHealthServer(":0", discardLogger()), discardLogger())

	assert.ErrorContains(t, err, "add cron job")
}

func TestScheduler_RunOnce(t *testing.T) {
	tests := []struct {
		name         string
		job          Job
		wantStatus   string
		wantErr      bool
		wantArticles float64
	}{
		{
			name:         "success",
			job:          func(context.Context) (int, error) { return 7, nil },
			wantStatus:   "success",
			wantArticles: 7,
		},
		{
			name:       "failure",
			job:        func(context.Context) (int, error) { return 0, errors.New("session exhausted") },
			wantStatus: "failure",
			wantErr:    true,
		},
		{
			name: "timeout",
			job: func(ctx context.Context) (int, error) {
				return 0, context.DeadlineExceeded
			},
			wantStatus: "timeout",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			s, metrics, health := newTestScheduler(t, tt.job)

			// Act
			err := s.RunOnce(context.Background())

			// Assert
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, float64(1), testutil.ToFloat64(metrics.RunsTotal.WithLabelValues(tt.wantStatus)))
			assert.Equal(t, tt.wantArticles, testutil.ToFloat64(metrics.ArticlesTotal))

			last, ok := health.LastRun()
			require.True(t, ok)
			assert.Equal(t, tt.wantStatus, last.Status)
			assert.Equal(t, 90*time.Second, last.FinishedAt.Sub(last.StartedAt))
		})
	}
}

func TestScheduler_RunOnce_AppliesRunTimeout(t *testing.T) {
	// Arrange
	var deadline time.Time
	s, _, _ := newTestScheduler(t, func(ctx context.Context) (int, error) {
		deadline, _ = ctx.Deadline()
		return 1, nil
	})
	before := time.Now()

	// Act
	require.NoError(t, s.RunOnce(context.Background()))

	// Assert
	assert.WithinDuration(t, before.Add(30*time.Minute), deadline, 5*time.Second)
}

func TestScheduler_Run_StopsOnCancel(t *testing.T) {
	// Arrange
	var calls atomic.Int32
	s, _, health := newTestScheduler(t, func(context.Context) (int, error) {
		calls.Add(1)
		return 0, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// Act
	go func() { done <- s.Run(ctx) }()
	require.Eventually(t, func() bool { return health.isReady.Load() }, time.Second, 10*time.Millisecond)
	cancel()

	// Assert
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.False(t, health.isReady.Load())
	assert.Zero(t, calls.Load(), "daily schedule must not fire during the test")
}

func TestCronLogger_CountsSkips(t *testing.T) {
	metrics := newIsolatedMetrics(t)
	l := &cronLogger{logger: discardLogger(), metrics: metrics}

	l.Info("skip")
	l.Info("wake", "now", time.Now())
	l.Error(errors.New("boom"), "panic", "stack", "...")

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("skipped")))
}
