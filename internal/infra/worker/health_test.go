package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealthServer_Liveness(t *testing.T) {
	server := NewHealthServer(":0", discardLogger())

	rec, body := get(t, server.Handler(), "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Trace-Id"))
	assert.Equal(t, "ok", body["status"])
}

func TestHealthServer_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		ready      []bool
		wantCode   int
		wantStatus string
	}{
		{name: "initially not ready", wantCode: http.StatusServiceUnavailable, wantStatus: "not ready"},
		{name: "ready", ready: []bool{true}, wantCode: http.StatusOK, wantStatus: "ok"},
		{name: "ready then draining", ready: []bool{true, false}, wantCode: http.StatusServiceUnavailable, wantStatus: "not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			server := NewHealthServer(":0", discardLogger())
			for _, r := range tt.ready {
				server.SetReady(r)
			}

			// Act
			rec, body := get(t, server.Handler(), "/health/ready")

			// Assert
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantStatus, body["status"])
		})
	}
}

func TestHealthServer_LastRun(t *testing.T) {
	// Arrange
	server := NewHealthServer(":0", discardLogger())
	rec, _ := get(t, server.Handler(), "/health/last-run")
	require.Equal(t, http.StatusNotFound, rec.Code)

	started := time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)
	server.SetLastRun(RunStatus{
		Status:     "failure",
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Error:      "session exhausted",
	})

	// Act
	rec, body := get(t, server.Handler(), "/health/last-run")

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "failure", body["status"])
	assert.Equal(t, "session exhausted", body["error"])
	assert.Equal(t, "2024-03-15T06:00:00Z", body["started_at"])
	assert.EqualValues(t, 0, body["articles"])
}

func TestHealthServer_GracefulShutdown(t *testing.T) {
	// Arrange
	server := NewHealthServer("localhost:19095", discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() { errChan <- server.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://localhost:19095/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	// Act
	cancel()

	// Assert
	select {
	case err := <-errChan:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(10 * time.Second):
		t.Fatal("shutdown timeout")
	}
	_, err := http.Get("http://localhost:19095/health")
	assert.Error(t, err)
}
