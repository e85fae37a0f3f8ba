package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"news-scraper/internal/domain/entity"
	pkgconfig "news-scraper/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var metricsSeq int32

// newTestMetrics registers config metrics under a name unique to this process.
func newTestMetrics() *pkgconfig.ConfigMetrics {
	return pkgconfig.NewConfigMetrics(fmt.Sprintf("test_scraper_cfg_%d", atomic.AddInt32(&metricsSeq, 1)))
}

func TestLoadScraperConfig_Defaults(t *testing.T) {
	// Arrange
	t.Setenv("SEARCH_PHRASE", "  climate  ")

	// Act
	cfg, err := LoadScraperConfig(slog.Default(), newTestMetrics())

	// Assert
	require.NoError(t, err)
	want := DefaultScraperConfig()
	want.SearchPhrase = "climate"
	assert.Equal(t, &want, cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadScraperConfig_FromEnv(t *testing.T) {
	// Arrange
	env := map[string]string{
		"SEARCH_PHRASE":    "economy",
		"SEARCH_DELTA":     "3",
		"BASE_URL":         "https://example.com",
		"OUTPUT_DIR":       "/tmp/out",
		"OUTPUT_FILE":      "report.xlsx",
		"BROWSER_BACKEND":  "STATIC",
		"BROWSER_PATH":     "/opt/chrome",
		"BROWSER_HEADLESS": "false",
		"MAX_ATTEMPTS":     "5",
		"MAX_PAGES":        "4",
		"PAGE_DELAY":       "2s",
		"POPUP_TIMEOUT":    "500ms",
		"WAIT_TIMEOUT":     "45s",
		"SCRAPER_TIMEZONE": "America/New_York",
		"SITE_CONFIG":      "site.yaml",
		"IMAGE_RPS":        "0.5",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	// Act
	cfg, err := LoadScraperConfig(slog.Default(), newTestMetrics())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, &ScraperConfig{
		SearchPhrase:   "economy",
		Delta:          3,
		BaseURL:        "https://example.com",
		OutputDir:      "/tmp/out",
		OutputFile:     "report.xlsx",
		BrowserBackend: "static",
		BrowserPath:    "/opt/chrome",
		Headless:       false,
		MaxAttempts:    5,
		MaxPages:       4,
		PageDelay:      2 * time.Second,
		PopupTimeout:   500 * time.Millisecond,
		WaitTimeout:    45 * time.Second,
		Timezone:       "America/New_York",
		SiteConfigPath: "site.yaml",
		ImageRPS:       0.5,
	}, cfg)
}

func TestLoadScraperConfig_InvalidDeltaIsFatal(t *testing.T) {
	tests := []string{"1.5", "abc", "-2", ""}

	for _, raw := range tests {
		t.Run(fmt.Sprintf("%q", raw), func(t *testing.T) {
			// Arrange
			t.Setenv("SEARCH_PHRASE", "climate")
			t.Setenv("SEARCH_DELTA", raw)

			// Act
			cfg, err := LoadScraperConfig(slog.Default(), newTestMetrics())

			// Assert
			assert.Nil(t, cfg)
			var deltaErr *entity.InvalidDeltaError
			assert.ErrorAs(t, err, &deltaErr)
		})
	}
}

func TestLoadScraperConfig_FallbacksAreCounted(t *testing.T) {
	// Arrange
	t.Setenv("SEARCH_PHRASE", "climate")
	t.Setenv("MAX_ATTEMPTS", "0")
	t.Setenv("PAGE_DELAY", "soon")
	t.Setenv("BROWSER_BACKEND", "firefox")
	t.Setenv("OUTPUT_FILE", "../escape.xlsx")
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	metrics := newTestMetrics()

	// Act
	cfg, err := LoadScraperConfig(logger, metrics)

	// Assert
	require.NoError(t, err)
	defaults := DefaultScraperConfig()
	assert.Equal(t, defaults.MaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, defaults.PageDelay, cfg.PageDelay)
	assert.Equal(t, defaults.BrowserBackend, cfg.BrowserBackend)
	assert.Equal(t, defaults.OutputFile, cfg.OutputFile)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("max_attempts")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("page_delay")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbackActive))
	assert.Contains(t, logs.String(), "Configuration fallback applied")
	assert.Contains(t, logs.String(), "MAX_ATTEMPTS")
}

func TestScraperConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ScraperConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(*ScraperConfig) {}},
		{name: "missing phrase", mutate: func(c *ScraperConfig) { c.SearchPhrase = "" }, wantErr: "search phrase is required"},
		{name: "negative delta", mutate: func(c *ScraperConfig) { c.Delta = -1 }, wantErr: "invalid month delta"},
		{name: "bad base url", mutate: func(c *ScraperConfig) { c.BaseURL = "apnews.com" }, wantErr: "base url"},
		{name: "output path", mutate: func(c *ScraperConfig) { c.OutputFile = "dir/out.xlsx" }, wantErr: "output file"},
		{name: "output extension", mutate: func(c *ScraperConfig) { c.OutputFile = "out.csv" }, wantErr: "output file"},
		{name: "backend", mutate: func(c *ScraperConfig) { c.BrowserBackend = "firefox" }, wantErr: "browser backend"},
		{name: "attempts", mutate: func(c *ScraperConfig) { c.MaxAttempts = 0 }, wantErr: "max attempts"},
		{name: "timezone", mutate: func(c *ScraperConfig) { c.Timezone = "Mars/Olympus" }, wantErr: "timezone"},
		{name: "zero wait timeout", mutate: func(c *ScraperConfig) { c.WaitTimeout = 0 }, wantErr: "wait timeout: duration must be positive"},
		{name: "negative popup timeout", mutate: func(c *ScraperConfig) { c.PopupTimeout = -time.Second }, wantErr: "popup timeout: duration must be positive"},
		{
			name: "several errors",
			mutate: func(c *ScraperConfig) {
				c.SearchPhrase = ""
				c.MaxAttempts = 99
			},
			wantErr: "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			c := DefaultScraperConfig()
			c.SearchPhrase = "climate"
			tt.mutate(&c)

			// Act
			err := c.Validate()

			// Assert
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestScraperConfig_ScrapeOptions(t *testing.T) {
	// Arrange
	c := DefaultScraperConfig()
	c.SearchPhrase = "climate"
	c.OutputDir = "/data/run"
	c.Timezone = "Asia/Tokyo"

	// Act
	opts, err := c.ScrapeOptions()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "climate", opts.SearchPhrase)
	assert.Equal(t, filepath.Join("/data/run", "images"), opts.ImagesDir)
	assert.Equal(t, "output_images.zip", opts.ArchiveName)
	assert.Equal(t, "Asia/Tokyo", opts.Location.String())
	assert.Equal(t, 10*time.Second, opts.PageDelay)
}
