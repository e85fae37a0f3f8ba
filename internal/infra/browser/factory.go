package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"news-scraper/internal/usecase/scrape"
)

// NewFactory returns the scrape.DriverFactory for opts.Backend.
func NewFactory(opts Options, logger *slog.Logger) (scrape.DriverFactory, error) {
	switch strings.ToLower(opts.Backend) {
	case BackendChrome, "":
		return func(ctx context.Context) (scrape.Driver, error) {
			return NewChromeDriver(ctx, opts, logger)
		}, nil
	case BackendStatic:
		return func(context.Context) (scrape.Driver, error) {
			client := &http.Client{Timeout: opts.HTTPTimeout}
			return NewStaticDriver(client, opts.UserAgent, logger), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown browser backend %q (want %s or %s)", opts.Backend, BackendChrome, BackendStatic)
	}
}
