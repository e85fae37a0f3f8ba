// Package app assembles a scrape.Runner from the application configuration.
// It is shared by the command line scraper and the scheduled worker.
package app

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"time"

	"news-scraper/internal/config"
	"news-scraper/internal/infra/browser"
	"news-scraper/internal/infra/export"
	"news-scraper/internal/infra/imagestore"
	"news-scraper/internal/usecase/scrape"
)

// NewRunner validates cfg, loads the site selectors and wires the browser
// backend, image downloader and exporters into a runner.
func NewRunner(cfg *config.ScraperConfig, logger *slog.Logger) (*scrape.Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	site, err := config.LoadSiteConfig(cfg.SiteConfigPath)
	if err != nil {
		return nil, err
	}

	opts, err := cfg.ScrapeOptions()
	if err != nil {
		return nil, err
	}

	factory, err := browser.NewFactory(BrowserOptions(cfg, runtime.GOOS), logger)
	if err != nil {
		return nil, fmt.Errorf("browser backend: %w", err)
	}

	imgCfg := imagestore.DefaultConfig()
	imgCfg.RequestsPerSecond = cfg.ImageRPS
	downloader := imagestore.NewDownloader(newHTTPClient(30*time.Second), imgCfg, logger)

	return scrape.NewRunner(opts, site.Selectors(), factory, downloader,
		export.NewXLSXWriter(), export.NewZipArchiver(), logger), nil
}

// BrowserOptions derives the browser backend options for goos. An empty
// BrowserPath selects the platform default when that binary exists, and
// otherwise leaves the lookup to chromedp.
func BrowserOptions(cfg *config.ScraperConfig, goos string) browser.Options {
	opts := browser.DefaultOptions(goos)
	opts.Backend = cfg.BrowserBackend
	opts.Headless = cfg.Headless
	opts.ExecPath = cfg.BrowserPath
	if opts.ExecPath == "" {
		if p := browser.DefaultBrowserPath(goos); p != "" {
			if _, err := os.Stat(p); err == nil {
				opts.ExecPath = p
			}
		}
	}
	if cfg.WaitTimeout > 0 {
		opts.HTTPTimeout = cfg.WaitTimeout
	}
	return opts
}

// newHTTPClient creates an HTTP client with timeouts and connection pooling.
// TLS 1.2+ is enforced.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}
