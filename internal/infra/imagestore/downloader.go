// Package imagestore downloads article images into the run's images directory.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"news-scraper/internal/domain/entity"
	"news-scraper/internal/observability/metrics"
	"news-scraper/internal/resilience/circuitbreaker"
	"news-scraper/internal/resilience/retry"

	"github.com/sony/gobreaker"
)

const (
	defaultExt     = ".jpg"
	fileTimeLayout = "20060102_150405.000000000"
	maxNameRetries = 100
)

// ErrTooLarge is returned when an image exceeds the configured size limit.
var ErrTooLarge = errors.New("image exceeds size limit")

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".avif": true, ".svg": true, ".bmp": true,
}

// DownloadError is returned when the image host answers with a non-2xx status.
type DownloadError struct {
	URL        string
	StatusCode int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: HTTP %d", e.URL, e.StatusCode)
}

// Unwrap exposes the status as a *retry.HTTPError so retry.IsRetryable can classify it.
func (e *DownloadError) Unwrap() error {
	return &retry.HTTPError{StatusCode: e.StatusCode, Message: http.StatusText(e.StatusCode)}
}

// Config holds downloader limits.
type Config struct {
	RequestsPerSecond float64
	Burst             int
	MaxSize           int64
	UserAgent         string
}

// DefaultConfig returns the default downloader limits.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 2.0,
		Burst:             4,
		MaxSize:           20 * 1024 * 1024, // 20MB
		UserAgent:         "news-scraper/1.0",
	}
}

// Downloader fetches images over HTTP through a rate limiter, a circuit breaker
// and a short retry budget, and stores each under a unique timestamped name.
type Downloader struct {
	client         *http.Client
	limiter        *RateLimiter
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	cfg            Config
	now            func() time.Time
	logger         *slog.Logger
}

// NewDownloader creates a Downloader. The client should carry a request timeout.
func NewDownloader(client *http.Client, cfg Config, logger *slog.Logger) *Downloader {
	cbConfig := circuitbreaker.ImageDownloadConfig()
	cbConfig.OnStateChange = func(_, to gobreaker.State) {
		metrics.SetImageCircuitOpen(to == gobreaker.StateOpen)
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultConfig().MaxSize
	}

	return &Downloader{
		client:         client,
		limiter:        NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		circuitBreaker: circuitbreaker.New(cbConfig),
		retryConfig:    retry.ImageDownloadConfig(),
		cfg:            cfg,
		now:            time.Now,
		logger:         logger,
	}
}

type image struct {
	data        []byte
	contentType string
}

// Download fetches rawURL and writes it into dir, returning the saved path.
func (d *Downloader) Download(ctx context.Context, rawURL, dir string) (string, error) {
	start := time.Now()
	savedPath, size, err := d.download(ctx, rawURL, dir)
	if err != nil {
		metrics.RecordImageDownloadFailure(time.Since(start))
		d.logger.Debug("image download failed",
			slog.String("url", rawURL),
			slog.Any("error", err))
		return "", err
	}

	metrics.RecordImageDownloadSuccess(time.Since(start), size)
	d.logger.Debug("image saved",
		slog.String("url", rawURL),
		slog.String("path", savedPath),
		slog.Int64("bytes", size))
	return savedPath, nil
}

func (d *Downloader) download(ctx context.Context, rawURL, dir string) (string, int64, error) {
	if err := entity.ValidateURL(rawURL); err != nil {
		return "", 0, err
	}
	if d.circuitBreaker.IsOpen() {
		d.logger.Warn("image circuit breaker open, download skipped",
			slog.String("service", d.circuitBreaker.Name()),
			slog.String("url", rawURL))
		return "", 0, gobreaker.ErrOpenState
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return "", 0, fmt.Errorf("rate limiter error: %w", err)
	}

	var img image
	err := retry.WithBackoff(ctx, d.retryConfig, func() error {
		result, err := d.circuitBreaker.Execute(func() (interface{}, error) {
			return d.fetch(ctx, rawURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				d.logger.Warn("image circuit breaker open, request rejected",
					slog.String("service", d.circuitBreaker.Name()),
					slog.String("url", rawURL))
			}
			return err
		}
		img = result.(image)
		return nil
	})
	if err != nil {
		return "", 0, err
	}

	savedPath, err := d.save(dir, extension(rawURL, img.contentType), img.data)
	if err != nil {
		return "", 0, err
	}
	return savedPath, int64(len(img.data)), nil
}

func (d *Downloader) fetch(ctx context.Context, rawURL string) (image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return image{}, fmt.Errorf("create request: %w", err)
	}
	if d.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", d.cfg.UserAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return image{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return image{}, &DownloadError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.cfg.MaxSize+1))
	if err != nil {
		return image{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > d.cfg.MaxSize {
		return image{}, fmt.Errorf("%w (%d bytes)", ErrTooLarge, d.cfg.MaxSize)
	}
	return image{data: data, contentType: resp.Header.Get("Content-Type")}, nil
}

// save writes data to dir under image_<timestamp><ext>, adding a numeric
// suffix when a file of that name already exists.
func (d *Downloader) save(dir, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create images dir: %w", err)
	}

	base := "image_" + d.now().Format(fileTimeLayout)
	for i := 0; i < maxNameRetries; i++ {
		name := base + ext
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", base, i, ext)
		}
		target := filepath.Join(dir, name)

		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640) // #nosec G304 -- name is generated
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create image file: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("write image file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close image file: %w", err)
		}
		return target, nil
	}
	return "", fmt.Errorf("no free file name for %s%s", base, ext)
}

// extension picks the file extension from the URL path, then the content type.
func extension(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if ext := strings.ToLower(path.Ext(u.Path)); imageExts[ext] {
			return ext
		}
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "image/jpeg":
			return ".jpg"
		case "image/png":
			return ".png"
		case "image/gif":
			return ".gif"
		case "image/webp":
			return ".webp"
		case "image/avif":
			return ".avif"
		case "image/svg+xml":
			return ".svg"
		}
	}
	return defaultExt
}
