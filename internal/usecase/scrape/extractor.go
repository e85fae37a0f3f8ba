package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"news-scraper/internal/domain/entity"
	"news-scraper/internal/observability/logging"
	"news-scraper/internal/observability/metrics"
	"news-scraper/internal/utils/text"
)

// Extractor turns one search result card into an ArticleRecord.
//
// The publication date is read first; a card without a parsable date or with a
// date outside the window yields no record and no other field is touched.
// Every other field is extracted independently and falls back to entity.NotAvailable.
type Extractor struct {
	driver    Driver
	sel       Selectors
	window    entity.DateWindow
	phrase    string
	images    ImageDownloader
	imagesDir string
	baseURL   *url.URL
}

// NewExtractor creates an Extractor. images may be nil, in which case every
// record carries entity.NotAvailable as its image path.
func NewExtractor(driver Driver, sel Selectors, window entity.DateWindow, phrase string,
	images ImageDownloader, imagesDir, baseURL string) *Extractor {
	base, _ := url.Parse(baseURL)
	return &Extractor{
		driver:    driver,
		sel:       sel,
		window:    window,
		phrase:    phrase,
		images:    images,
		imagesDir: imagesDir,
		baseURL:   base,
	}
}

// Extract returns the record for card and true, or false when the card is not admitted.
func (e *Extractor) Extract(ctx context.Context, card Element) (entity.ArticleRecord, bool) {
	published, err := e.timestamp(ctx, card)
	if err != nil {
		metrics.RecordArticleOutcome(metrics.OutcomeNoDate)
		logging.FromContext(ctx).Debug("skipping card without date", slog.Any("error", err))
		return entity.ArticleRecord{}, false
	}
	if !e.window.Contains(published) {
		metrics.RecordArticleOutcome(metrics.OutcomeOutOfWindow)
		logging.FromContext(ctx).Debug("skipping card outside date window",
			slog.Time("published", published),
			slog.String("window", e.window.String()))
		return entity.ArticleRecord{}, false
	}

	title := e.text(ctx, card, e.sel.Title, "title")
	description := e.text(ctx, card, e.sel.Description, "description")
	imagePath := e.image(ctx, card)

	metrics.RecordArticleOutcome(metrics.OutcomeAdmitted)
	return entity.ArticleRecord{
		Title:           title,
		Date:            published,
		Description:     description,
		ImagePath:       imagePath,
		PhraseCount:     text.CountPhrase(e.phrase, title, description),
		HasMoneyMention: text.HasMoneyMention(title, description),
	}, true
}

func (e *Extractor) timestamp(ctx context.Context, card Element) (time.Time, error) {
	el, err := e.driver.Find(ctx, card, e.sel.Timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("find timestamp: %w", err)
	}
	raw, ok, err := e.driver.Attribute(ctx, el, e.sel.TimestampAttr)
	if err != nil {
		return time.Time{}, fmt.Errorf("read %s: %w", e.sel.TimestampAttr, err)
	}
	if !ok {
		return time.Time{}, fmt.Errorf("%s: %w", e.sel.TimestampAttr, ErrElementNotFound)
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return time.UnixMilli(ms).In(e.window.Start.Location()), nil
}

func (e *Extractor) text(ctx context.Context, card Element, selector, field string) string {
	el, err := e.driver.Find(ctx, card, selector)
	if err == nil {
		var value string
		if value, err = e.driver.Text(ctx, el); err == nil {
			if value = strings.TrimSpace(value); value != "" {
				return value
			}
		}
	}
	metrics.RecordFieldFallback(field)
	logging.FromContext(ctx).Debug("field not available", slog.String("field", field), slog.Any("error", err))
	return entity.NotAvailable
}

func (e *Extractor) image(ctx context.Context, card Element) string {
	path, err := e.downloadImage(ctx, card)
	if err != nil {
		metrics.RecordFieldFallback("image")
		logging.FromContext(ctx).Debug("image not available", slog.Any("error", err))
		return entity.NotAvailable
	}
	return path
}

func (e *Extractor) downloadImage(ctx context.Context, card Element) (string, error) {
	if e.images == nil {
		return "", errors.New("image download disabled")
	}
	el, err := e.driver.Find(ctx, card, e.sel.Image)
	if err != nil {
		return "", fmt.Errorf("find image: %w", err)
	}

	var src string
	for _, attr := range e.sel.ImageAttrs {
		value, ok, err := e.driver.Attribute(ctx, el, attr)
		if err == nil && ok && strings.TrimSpace(value) != "" {
			src = strings.TrimSpace(value)
			break
		}
	}
	if src == "" {
		return "", fmt.Errorf("image source: %w", ErrElementNotFound)
	}

	return e.images.Download(ctx, e.resolve(src), e.imagesDir)
}

// resolve makes a relative image reference absolute against the site root.
func (e *Extractor) resolve(src string) string {
	if e.baseURL == nil {
		return src
	}
	ref, err := url.Parse(src)
	if err != nil || ref.IsAbs() {
		return src
	}
	return e.baseURL.ResolveReference(ref).String()
}
