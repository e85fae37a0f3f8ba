package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"news-scraper/internal/domain/entity"
	"news-scraper/internal/observability/logging"
	"news-scraper/internal/observability/metrics"
	"news-scraper/internal/observability/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// Paginator walks the sorted result pages and collects admitted records.
//
// Results are ordered newest first, so the walk stops at the first page that
// admits nothing. It also stops when the next-page control is missing or
// disabled, or when MaxPages pages have been read.
type Paginator struct {
	driver    Driver
	popups    *PopupDismisser
	extractor *Extractor
	sel       Selectors
	maxPages  int
	pageDelay time.Duration
	timeout   time.Duration
}

// NewPaginator creates a Paginator. maxPages <= 0 means no page limit.
func NewPaginator(driver Driver, popups *PopupDismisser, extractor *Extractor, sel Selectors,
	maxPages int, pageDelay, timeout time.Duration) *Paginator {
	return &Paginator{
		driver:    driver,
		popups:    popups,
		extractor: extractor,
		sel:       sel,
		maxPages:  maxPages,
		pageDelay: pageDelay,
		timeout:   timeout,
	}
}

// Collect reads result pages until a stop condition is met and returns the
// admitted records in page order.
func (p *Paginator) Collect(ctx context.Context) ([]entity.ArticleRecord, error) {
	logger := logging.FromContext(ctx)
	var records []entity.ArticleRecord

	for page := 1; ; page++ {
		admitted, err := p.readPage(ctx, page)
		records = append(records, admitted...)
		if err != nil {
			return records, err
		}

		if len(admitted) == 0 {
			logger.Info("no articles in date window on page, stopping", slog.Int("page", page))
			return records, nil
		}
		if p.maxPages > 0 && page >= p.maxPages {
			logger.Info("page limit reached", slog.Int("max_pages", p.maxPages))
			return records, nil
		}

		next, ok := p.nextControl(ctx)
		if !ok {
			logger.Info("last result page reached", slog.Int("page", page))
			return records, nil
		}
		if err := p.advance(ctx, page, next); err != nil {
			return records, err
		}
	}
}

func (p *Paginator) readPage(ctx context.Context, page int) (admitted []entity.ArticleRecord, err error) {
	ctx, span := tracing.StartSpan(ctx, "scrape.page", attribute.Int("page", page))
	defer func() {
		span.SetAttributes(attribute.Int("admitted", len(admitted)))
		tracing.EndSpan(span, err)
	}()

	if err := p.driver.WaitVisible(ctx, p.sel.ResultsContainer, p.timeout); err != nil {
		return nil, &PaginationError{Page: page, Err: fmt.Errorf("wait for results: %w", err)}
	}
	cards, err := p.driver.FindAll(ctx, nil, p.sel.Card)
	if err != nil {
		return nil, &PaginationError{Page: page, Err: fmt.Errorf("find result cards: %w", err)}
	}
	metrics.RecordPageVisited()

	for _, card := range cards {
		if err := ctx.Err(); err != nil {
			return admitted, err
		}
		p.popups.Dismiss(ctx)
		if record, ok := p.extractor.Extract(ctx, card); ok {
			admitted = append(admitted, record)
		}
	}

	logging.FromContext(ctx).Info("result page processed",
		slog.Int("page", page),
		slog.Int("cards", len(cards)),
		slog.Int("admitted", len(admitted)))
	return admitted, nil
}

// nextControl returns the next-page control when it exists and is enabled.
func (p *Paginator) nextControl(ctx context.Context) (Element, bool) {
	if p.sel.NextPage == "" {
		return nil, false
	}
	controls, err := p.driver.FindAll(ctx, nil, p.sel.NextPage)
	if err != nil || len(controls) == 0 {
		return nil, false
	}
	next := controls[0]

	if _, ok, _ := p.driver.Attribute(ctx, next, "disabled"); ok {
		return nil, false
	}
	if v, ok, _ := p.driver.Attribute(ctx, next, "aria-disabled"); ok && strings.EqualFold(v, "true") {
		return nil, false
	}
	if p.sel.NextDisabledClass != "" {
		if class, ok, _ := p.driver.Attribute(ctx, next, "class"); ok {
			for _, c := range strings.Fields(class) {
				if c == p.sel.NextDisabledClass {
					return nil, false
				}
			}
		}
	}
	return next, true
}

func (p *Paginator) advance(ctx context.Context, page int, next Element) error {
	if err := p.driver.Click(ctx, next); err != nil {
		return &PaginationError{Page: page, Err: fmt.Errorf("click next page: %w", err)}
	}
	if err := sleep(ctx, p.pageDelay); err != nil {
		return err
	}
	if err := p.driver.WaitReady(ctx, p.timeout); err != nil {
		return &PaginationError{Page: page + 1, Err: fmt.Errorf("wait for page: %w", err)}
	}
	return nil
}
