package scrape

import (
	"context"
	"log/slog"
	"time"

	"news-scraper/internal/observability/logging"
	"news-scraper/internal/observability/metrics"
)

// PopupDismisser closes the configured overlays if they are showing.
// It never fails: an overlay that is absent or cannot be closed is skipped.
type PopupDismisser struct {
	driver   Driver
	overlays []Overlay
	timeout  time.Duration
}

// NewPopupDismisser creates a PopupDismisser. timeout bounds both the wait for an
// overlay to appear and the wait for it to disappear after the click.
func NewPopupDismisser(driver Driver, overlays []Overlay, timeout time.Duration) *PopupDismisser {
	return &PopupDismisser{driver: driver, overlays: overlays, timeout: timeout}
}

// Dismiss closes every visible overlay and returns the number closed.
func (p *PopupDismisser) Dismiss(ctx context.Context) int {
	closed := 0
	for _, o := range p.overlays {
		if ctx.Err() != nil {
			return closed
		}
		if p.dismiss(ctx, o) {
			closed++
		}
	}
	return closed
}

func (p *PopupDismisser) dismiss(ctx context.Context, o Overlay) bool {
	if err := p.driver.WaitVisible(ctx, o.Selector, p.timeout); err != nil {
		return false
	}
	logger := logging.FromContext(ctx)

	el, err := p.driver.Find(ctx, nil, o.Selector)
	if err != nil {
		logger.Debug("overlay disappeared before click",
			slog.String("overlay", o.Name),
			slog.Any("error", err))
		return false
	}
	if err := p.driver.Click(ctx, el); err != nil {
		logger.Debug("failed to click overlay close button",
			slog.String("overlay", o.Name),
			slog.Any("error", err))
		return false
	}
	if err := p.driver.WaitNotVisible(ctx, o.Selector, p.timeout); err != nil {
		logger.Debug("overlay still visible after click",
			slog.String("overlay", o.Name),
			slog.Any("error", err))
		return false
	}

	metrics.RecordPopupDismissed(o.Name)
	logger.Debug("overlay dismissed", slog.String("overlay", o.Name))
	return true
}
