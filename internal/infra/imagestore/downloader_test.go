package imagestore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"news-scraper/internal/resilience/circuitbreaker"
	"news-scraper/internal/resilience/retry"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, time.March, 15, 10, 4, 5, 123456789, time.UTC)

func newTestDownloader(t *testing.T, cfg Config) *Downloader {
	t.Helper()
	d := NewDownloader(http.DefaultClient, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	d.retryConfig = retry.Config{MaxAttempts: 2, Multiplier: 1}
	d.now = func() time.Time { return fixedTime }
	return d
}

func imageServer(t *testing.T, status int, contentType string, body []byte, requests *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			atomic.AddInt32(requests, 1)
		}
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDownloader_Download_Success(t *testing.T) {
	// Arrange
	body := []byte("\x89PNG fake image bytes")
	server := imageServer(t, http.StatusOK, "image/png", body, nil)
	dir := filepath.Join(t.TempDir(), "images")
	d := newTestDownloader(t, DefaultConfig())

	// Act
	savedPath, err := d.Download(context.Background(), server.URL+"/photos/a.png?w=600", dir)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "image_20240315_100405.123456789.png"), savedPath)
	data, err := os.ReadFile(savedPath)
	require.NoError(t, err)
	assert.Equal(t, body, data)
}

func TestDownloader_Download_NameCollision(t *testing.T) {
	// Arrange
	server := imageServer(t, http.StatusOK, "image/jpeg", []byte("jpeg"), nil)
	dir := t.TempDir()
	d := newTestDownloader(t, DefaultConfig())

	// Act
	first, err1 := d.Download(context.Background(), server.URL+"/a.jpg", dir)
	second, err2 := d.Download(context.Background(), server.URL+"/b.jpg", dir)

	// Assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, "image_20240315_100405.123456789.jpg", filepath.Base(first))
	assert.Equal(t, "image_20240315_100405.123456789_1.jpg", filepath.Base(second))
}

func TestDownloader_Download_HTTPErrors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		wantRequests int32
	}{
		{name: "not found", status: http.StatusNotFound, wantRequests: 1},
		{name: "forbidden", status: http.StatusForbidden, wantRequests: 1},
		{name: "server error retried", status: http.StatusBadGateway, wantRequests: 2},
		{name: "rate limited retried", status: http.StatusTooManyRequests, wantRequests: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			var requests int32
			server := imageServer(t, tt.status, "text/plain", nil, &requests)
			d := newTestDownloader(t, DefaultConfig())

			// Act
			savedPath, err := d.Download(context.Background(), server.URL+"/a.jpg", t.TempDir())

			// Assert
			assert.Empty(t, savedPath)
			var dlErr *DownloadError
			require.True(t, errors.As(err, &dlErr), "got %v", err)
			assert.Equal(t, tt.status, dlErr.StatusCode)
			assert.Equal(t, tt.wantRequests, atomic.LoadInt32(&requests))
		})
	}
}

func TestDownloader_Download_OpenBreakerSkipsRequest(t *testing.T) {
	// Arrange
	var requests int32
	server := imageServer(t, http.StatusBadGateway, "text/plain", nil, &requests)
	d := newTestDownloader(t, DefaultConfig())
	d.circuitBreaker = circuitbreaker.New(circuitbreaker.Config{
		Name:             "image-download",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      1,
	})
	_, firstErr := d.Download(context.Background(), server.URL+"/a.jpg", t.TempDir())
	require.Error(t, firstErr)
	require.True(t, d.circuitBreaker.IsOpen())
	before := atomic.LoadInt32(&requests)

	// Act
	savedPath, err := d.Download(context.Background(), server.URL+"/b.jpg", t.TempDir())

	// Assert
	assert.Empty(t, savedPath)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, before, atomic.LoadInt32(&requests), "no request reaches an open host")
}

func TestDownloader_Download_TooLarge(t *testing.T) {
	// Arrange
	server := imageServer(t, http.StatusOK, "image/jpeg", make([]byte, 2048), nil)
	cfg := DefaultConfig()
	cfg.MaxSize = 1024
	d := newTestDownloader(t, cfg)
	dir := t.TempDir()

	// Act
	_, err := d.Download(context.Background(), server.URL+"/big.jpg", dir)

	// Assert
	assert.ErrorIs(t, err, ErrTooLarge)
	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestDownloader_Download_InvalidURL(t *testing.T) {
	tests := []string{"", "ftp://example.com/a.jpg", "/relative/a.jpg", "N/A"}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			d := newTestDownloader(t, DefaultConfig())

			_, err := d.Download(context.Background(), raw, t.TempDir())

			assert.Error(t, err)
		})
	}
}

func TestDownloader_Download_CancelledContext(t *testing.T) {
	// Arrange
	var requests int32
	server := imageServer(t, http.StatusOK, "image/jpeg", []byte("x"), &requests)
	cfg := DefaultConfig()
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 1
	d := newTestDownloader(t, cfg)
	_, err := d.Download(context.Background(), server.URL+"/a.jpg", t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Act
	_, err = d.Download(ctx, server.URL+"/b.jpg", t.TempDir())

	// Assert
	assert.ErrorContains(t, err, "rate limiter error")
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
}

func TestExtension(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		contentType string
		want        string
	}{
		{name: "from path", url: "https://cdn.example/a.PNG", want: ".png"},
		{name: "query ignored", url: "https://cdn.example/a.webp?w=300", want: ".webp"},
		{name: "from content type", url: "https://cdn.example/resize/abc", contentType: "image/png; charset=binary", want: ".png"},
		{name: "unknown path ext uses content type", url: "https://cdn.example/img.php", contentType: "image/gif", want: ".gif"},
		{name: "default", url: "https://cdn.example/abc", want: ".jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extension(tt.url, tt.contentType))
		})
	}
}

func TestDownloadError(t *testing.T) {
	err := &DownloadError{URL: "https://cdn.example/a.jpg", StatusCode: http.StatusServiceUnavailable}

	assert.Equal(t, "download https://cdn.example/a.jpg: HTTP 503", err.Error())
	assert.True(t, retry.IsRetryable(err))
	assert.False(t, retry.IsRetryable(&DownloadError{StatusCode: http.StatusNotFound}))
}
