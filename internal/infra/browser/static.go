package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"news-scraper/internal/resilience/retry"
	"news-scraper/internal/usecase/scrape"

	"github.com/PuerkitoBio/goquery"
)

const maxPageSize = 10 * 1024 * 1024 // 10MB

// errNoDocument is returned by queries issued before a page was loaded.
var errNoDocument = errors.New("no page loaded")

// StaticDriver implements scrape.Driver over plain HTTP and a parsed HTML
// document. Scripts are not executed, so overlays rendered by script never
// appear and waits succeed or fail immediately.
//
// Click follows the href of the element or of its first descendant link.
// SendKeys is not supported; use the url search mode with this backend.
type StaticDriver struct {
	client      *http.Client
	userAgent   string
	retryConfig retry.Config
	logger      *slog.Logger

	doc *goquery.Document
	url *url.URL
}

// NewStaticDriver creates a StaticDriver using client for page requests.
func NewStaticDriver(client *http.Client, userAgent string, logger *slog.Logger) *StaticDriver {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &StaticDriver{
		client:      client,
		userAgent:   userAgent,
		retryConfig: retry.WebScraperConfig(),
		logger:      logger,
	}
}

// Navigate fetches rawURL and makes it the current document.
func (d *StaticDriver) Navigate(ctx context.Context, rawURL string) error {
	var doc *goquery.Document
	var final *url.URL

	err := retry.WithBackoff(ctx, d.retryConfig, func() error {
		var err error
		doc, final, err = d.fetch(ctx, rawURL)
		return err
	})
	if err != nil {
		return err
	}

	d.doc, d.url = doc, final
	d.logger.Debug("page loaded", slog.String("url", final.String()))
	return nil
}

func (d *StaticDriver) fetch(ctx context.Context, rawURL string) (*goquery.Document, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status: %s", resp.Status),
		}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, nil, fmt.Errorf("parse HTML: %w", err)
	}
	return doc, resp.Request.URL, nil
}

// CurrentURL returns the final URL of the current document, after redirects.
func (d *StaticDriver) CurrentURL(context.Context) (string, error) {
	if d.url == nil {
		return "", errNoDocument
	}
	return d.url.String(), nil
}

// WaitReady succeeds once a document is loaded.
func (d *StaticDriver) WaitReady(ctx context.Context, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.doc == nil {
		return errNoDocument
	}
	return nil
}

// WaitVisible succeeds when selector matches in the current document.
func (d *StaticDriver) WaitVisible(ctx context.Context, selector string, _ time.Duration) error {
	if err := d.WaitReady(ctx, 0); err != nil {
		return err
	}
	if d.doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%s: %w", selector, scrape.ErrElementNotFound)
	}
	return nil
}

// WaitNotVisible succeeds when selector matches nothing in the current document.
func (d *StaticDriver) WaitNotVisible(ctx context.Context, selector string, _ time.Duration) error {
	if err := d.WaitReady(ctx, 0); err != nil {
		return err
	}
	if d.doc.Find(selector).Length() > 0 {
		return fmt.Errorf("%s is still present", selector)
	}
	return nil
}

func selection(el scrape.Element) (*goquery.Selection, error) {
	s, ok := el.(*goquery.Selection)
	if !ok || s == nil {
		return nil, fmt.Errorf("unexpected element %T", el)
	}
	return s, nil
}

// FindAll returns every element matching selector under parent, or under the document when parent is nil.
func (d *StaticDriver) FindAll(_ context.Context, parent scrape.Element, selector string) ([]scrape.Element, error) {
	var found *goquery.Selection
	if parent == nil {
		if d.doc == nil {
			return nil, errNoDocument
		}
		found = d.doc.Find(selector)
	} else {
		p, err := selection(parent)
		if err != nil {
			return nil, err
		}
		found = p.Find(selector)
	}

	elements := make([]scrape.Element, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, s)
	})
	return elements, nil
}

// Find returns the first element matching selector under parent, or ErrElementNotFound.
func (d *StaticDriver) Find(ctx context.Context, parent scrape.Element, selector string) (scrape.Element, error) {
	elements, err := d.FindAll(ctx, parent, selector)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("%s: %w", selector, scrape.ErrElementNotFound)
	}
	return elements[0], nil
}

// Text returns the trimmed text of el and its descendants.
func (d *StaticDriver) Text(_ context.Context, el scrape.Element) (string, error) {
	s, err := selection(el)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s.Text()), nil
}

// Attribute returns the value of attribute name on el and whether it is set.
func (d *StaticDriver) Attribute(_ context.Context, el scrape.Element, name string) (string, bool, error) {
	s, err := selection(el)
	if err != nil {
		return "", false, err
	}
	value, ok := s.Attr(name)
	return value, ok, nil
}

// Click navigates to the link target of el.
func (d *StaticDriver) Click(ctx context.Context, el scrape.Element) error {
	s, err := selection(el)
	if err != nil {
		return err
	}

	href, ok := s.Attr("href")
	if !ok {
		href, ok = s.Find("a[href]").First().Attr("href")
	}
	if !ok || strings.TrimSpace(href) == "" {
		return fmt.Errorf("click element without link: %w", scrape.ErrUnsupported)
	}

	target, err := d.resolve(href)
	if err != nil {
		return err
	}
	return d.Navigate(ctx, target)
}

func (d *StaticDriver) resolve(href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parse link %q: %w", href, err)
	}
	if d.url == nil {
		return ref.String(), nil
	}
	return d.url.ResolveReference(ref).String(), nil
}

// SendKeys always fails with ErrUnsupported.
func (d *StaticDriver) SendKeys(context.Context, scrape.Element, string) error {
	return fmt.Errorf("send keys: %w", scrape.ErrUnsupported)
}

// Close drops the current document and idle connections.
func (d *StaticDriver) Close() error {
	d.doc, d.url = nil, nil
	d.client.CloseIdleConnections()
	return nil
}
