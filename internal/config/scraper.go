package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"news-scraper/internal/domain/entity"
	pkgconfig "news-scraper/internal/pkg/config"
	"news-scraper/internal/usecase/scrape"
)

// ScraperConfig holds the settings of one scrape run.
//
// Configuration sources, later ones winning:
//   - DefaultScraperConfig
//   - Environment variables (LoadScraperConfig)
//   - Command line flags (applied by the CLI)
type ScraperConfig struct {
	// SearchPhrase is the query submitted to the site search. Required.
	SearchPhrase string

	// Delta is the number of months covered, counting the current one.
	// 0 and 1 both mean the current month only.
	// Default: 1
	Delta int

	// BaseURL is the site root.
	// Default: "https://apnews.com"
	BaseURL string

	// OutputDir receives the spreadsheet, the image archive and, while the run lasts, the images.
	// Default: "output"
	OutputDir string

	// OutputFile is the spreadsheet name inside OutputDir.
	// Default: "output.xlsx"
	OutputFile string

	// BrowserBackend selects the driver: "chrome" or "static".
	// Default: "chrome"
	BrowserBackend string

	// BrowserPath is the Chrome binary. Empty selects the platform default.
	BrowserPath string

	// Headless runs Chrome without a window.
	// Default: true
	Headless bool

	// MaxAttempts is the session retry budget.
	// Range: 1-10, Default: 3
	MaxAttempts int

	// MaxPages caps the number of result pages read; 0 means unlimited.
	// Range: 0-1000, Default: 0
	MaxPages int

	// PageDelay is the pause after moving to the next result page.
	// Range: 0-2m, Default: 10s
	PageDelay time.Duration

	// PopupTimeout bounds the wait for each overlay.
	// Range: 100ms-30s, Default: 1s
	PopupTimeout time.Duration

	// WaitTimeout bounds the wait for page content.
	// Range: 1s-5m, Default: 30s
	WaitTimeout time.Duration

	// Timezone is the IANA zone in which publication dates and the date window are evaluated.
	// Default: "UTC"
	Timezone string

	// SiteConfigPath is an optional YAML selector file; empty uses the built-in AP News selectors.
	SiteConfigPath string

	// ImageRPS limits image requests per second; 0 disables limiting.
	// Range: 0-100, Default: 2
	ImageRPS float64
}

// Browser backends accepted in BrowserBackend.
const (
	backendChrome = "chrome"
	backendStatic = "static"
)

// DefaultScraperConfig returns the default run settings. SearchPhrase is left empty.
func DefaultScraperConfig() ScraperConfig {
	return ScraperConfig{
		Delta:          1,
		BaseURL:        "https://apnews.com",
		OutputDir:      "output",
		OutputFile:     scrape.DefaultOutputFile,
		BrowserBackend: backendChrome,
		Headless:       true,
		MaxAttempts:    3,
		MaxPages:       0,
		PageDelay:      10 * time.Second,
		PopupTimeout:   1 * time.Second,
		WaitTimeout:    30 * time.Second,
		Timezone:       "UTC",
		ImageRPS:       2.0,
	}
}

// LoadScraperConfig loads run settings from the environment.
//
// Operational settings are fail-open: an invalid value falls back to its default,
// is logged and counted in metrics. The search inputs are not: an invalid
// SEARCH_DELTA is returned as *entity.InvalidDeltaError, because running with a
// different window than requested would produce a wrong report.
//
// Environment variables:
//   - SEARCH_PHRASE, SEARCH_DELTA, BASE_URL, OUTPUT_DIR, OUTPUT_FILE
//   - BROWSER_BACKEND, BROWSER_PATH, BROWSER_HEADLESS
//   - MAX_ATTEMPTS, MAX_PAGES, PAGE_DELAY, POPUP_TIMEOUT, WAIT_TIMEOUT
//   - SCRAPER_TIMEZONE, SITE_CONFIG, IMAGE_RPS
func LoadScraperConfig(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) (*ScraperConfig, error) {
	cfg := DefaultScraperConfig()
	fallbackApplied := false
	observe := func(field string, result pkgconfig.ConfigLoadResult) pkgconfig.ConfigLoadResult {
		if metrics.Observe(logger, field, result) {
			fallbackApplied = true
		}
		return result
	}

	cfg.SearchPhrase = strings.TrimSpace(os.Getenv("SEARCH_PHRASE"))
	if raw, ok := os.LookupEnv("SEARCH_DELTA"); ok {
		delta, err := entity.ParseDelta(raw)
		if err != nil {
			metrics.RecordValidationError("search_delta")
			return nil, err
		}
		cfg.Delta = delta
	}

	cfg.BaseURL = observe("base_url",
		pkgconfig.LoadEnvWithFallback("BASE_URL", cfg.BaseURL, pkgconfig.ValidateURL)).Value.(string)
	cfg.OutputDir = pkgconfig.LoadEnvString("OUTPUT_DIR", cfg.OutputDir)
	cfg.OutputFile = observe("output_file",
		pkgconfig.LoadEnvWithFallback("OUTPUT_FILE", cfg.OutputFile, validateFileName)).Value.(string)

	cfg.BrowserBackend = strings.ToLower(observe("browser_backend",
		pkgconfig.LoadEnvWithFallback("BROWSER_BACKEND", cfg.BrowserBackend,
			pkgconfig.ValidateOneOf(backendChrome, backendStatic))).Value.(string))
	cfg.BrowserPath = pkgconfig.LoadEnvString("BROWSER_PATH", cfg.BrowserPath)
	cfg.Headless = observe("browser_headless",
		pkgconfig.LoadEnvBool("BROWSER_HEADLESS", cfg.Headless)).Value.(bool)

	cfg.MaxAttempts = observe("max_attempts",
		pkgconfig.LoadEnvInt("MAX_ATTEMPTS", cfg.MaxAttempts, func(v int) error {
			return pkgconfig.ValidateIntRange(v, 1, 10)
		})).Value.(int)
	cfg.MaxPages = observe("max_pages",
		pkgconfig.LoadEnvInt("MAX_PAGES", cfg.MaxPages, func(v int) error {
			return pkgconfig.ValidateIntRange(v, 0, 1000)
		})).Value.(int)

	cfg.PageDelay = observe("page_delay",
		pkgconfig.LoadEnvDuration("PAGE_DELAY", cfg.PageDelay, func(d time.Duration) error {
			return pkgconfig.ValidateDuration(d, 0, 2*time.Minute)
		})).Value.(time.Duration)
	cfg.PopupTimeout = observe("popup_timeout",
		pkgconfig.LoadEnvDuration("POPUP_TIMEOUT", cfg.PopupTimeout, func(d time.Duration) error {
			return pkgconfig.ValidateDuration(d, 100*time.Millisecond, 30*time.Second)
		})).Value.(time.Duration)
	cfg.WaitTimeout = observe("wait_timeout",
		pkgconfig.LoadEnvDuration("WAIT_TIMEOUT", cfg.WaitTimeout, func(d time.Duration) error {
			return pkgconfig.ValidateDuration(d, 1*time.Second, 5*time.Minute)
		})).Value.(time.Duration)

	cfg.Timezone = observe("timezone",
		pkgconfig.LoadEnvWithFallback("SCRAPER_TIMEZONE", cfg.Timezone, pkgconfig.ValidateTimezone)).Value.(string)
	cfg.SiteConfigPath = pkgconfig.LoadEnvString("SITE_CONFIG", cfg.SiteConfigPath)
	cfg.ImageRPS = observe("image_rps",
		pkgconfig.LoadEnvFloat("IMAGE_RPS", cfg.ImageRPS, func(v float64) error {
			if v < 0 || v > 100 {
				return fmt.Errorf("value %g out of range [0, 100]", v)
			}
			return nil
		})).Value.(float64)

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()
	return &cfg, nil
}

// Validate checks the settings a run cannot start without. It is applied after
// command line flags, which bypass the fail-open environment loaders.
func (c *ScraperConfig) Validate() error {
	var errs []error

	if err := entity.ValidateSearchPhrase(c.SearchPhrase); err != nil {
		errs = append(errs, err)
	}
	if c.Delta < 0 {
		errs = append(errs, &entity.InvalidDeltaError{Value: fmt.Sprint(c.Delta), Reason: "must not be negative"})
	}
	if err := pkgconfig.ValidateURL(c.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("base url: %w", err))
	}
	if err := validateFileName(c.OutputFile); err != nil {
		errs = append(errs, fmt.Errorf("output file: %w", err))
	}
	if err := pkgconfig.ValidateOneOf(backendChrome, backendStatic)(c.BrowserBackend); err != nil {
		errs = append(errs, fmt.Errorf("browser backend: %w", err))
	}
	if err := pkgconfig.ValidateIntRange(c.MaxAttempts, 1, 10); err != nil {
		errs = append(errs, fmt.Errorf("max attempts: %w", err))
	}
	if err := pkgconfig.ValidateIntRange(c.MaxPages, 0, 1000); err != nil {
		errs = append(errs, fmt.Errorf("max pages: %w", err))
	}
	if err := pkgconfig.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := pkgconfig.ValidatePositiveDuration(c.WaitTimeout); err != nil {
		errs = append(errs, fmt.Errorf("wait timeout: %w", err))
	}
	if err := pkgconfig.ValidatePositiveDuration(c.PopupTimeout); err != nil {
		errs = append(errs, fmt.Errorf("popup timeout: %w", err))
	}

	if len(errs) == 1 {
		return errs[0]
	}
	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// Location resolves Timezone.
func (c *ScraperConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// ScrapeOptions converts the settings into per-run engine options.
func (c *ScraperConfig) ScrapeOptions() (scrape.Options, error) {
	loc, err := c.Location()
	if err != nil {
		return scrape.Options{}, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return scrape.Options{
		BaseURL:      c.BaseURL,
		SearchPhrase: c.SearchPhrase,
		Delta:        c.Delta,
		OutputDir:    c.OutputDir,
		OutputFile:   c.OutputFile,
		ArchiveName:  scrape.DefaultArchiveName,
		ImagesDir:    filepath.Join(c.OutputDir, scrape.DefaultImagesDir),
		MaxAttempts:  c.MaxAttempts,
		MaxPages:     c.MaxPages,
		PageDelay:    c.PageDelay,
		PopupTimeout: c.PopupTimeout,
		WaitTimeout:  c.WaitTimeout,
		Location:     loc,
	}, nil
}

// validateFileName accepts a bare spreadsheet file name ending in .xlsx.
func validateFileName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("'%s' must be a plain file name", name)
	}
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return fmt.Errorf("'%s' must have the .xlsx extension", name)
	}
	return nil
}
