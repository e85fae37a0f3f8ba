package scrape_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"news-scraper/internal/domain/entity"
	"news-scraper/internal/usecase/scrape"
)

/* ───────── in-memory browser ───────── */

// fakeNode is a DOM node whose descendants are indexed by selector.
type fakeNode struct {
	text     string
	attrs    map[string]string
	children map[string][]*fakeNode
	textErr  error
	clickErr error
	onClick  func(d *fakeDriver)
}

// fakePage maps document-level selectors to nodes.
type fakePage map[string][]*fakeNode

// fakeDriver implements scrape.Driver over a list of pages.
type fakeDriver struct {
	mu sync.Mutex

	pages []fakePage
	page  int

	url        string
	currentURL string // overrides url when set
	navigated  []string
	navErr     error
	navFails   int // Navigate calls that fail with navErr; negative fails every call
	readyErr   error
	keys       []string
	closeCalls int
}

var errFake = errors.New("fake failure")

func (d *fakeDriver) doc() fakePage {
	if d.page < len(d.pages) {
		return d.pages[d.page]
	}
	return fakePage{}
}

func (d *fakeDriver) Navigate(_ context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.navigated = append(d.navigated, url)
	if d.navErr != nil && d.navFails != 0 {
		if d.navFails > 0 {
			d.navFails--
		}
		return d.navErr
	}
	d.url = url
	return nil
}

func (d *fakeDriver) CurrentURL(context.Context) (string, error) {
	if d.currentURL != "" {
		return d.currentURL, nil
	}
	return d.url, nil
}

func (d *fakeDriver) WaitReady(ctx context.Context, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.readyErr
}

func (d *fakeDriver) WaitVisible(ctx context.Context, selector string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(d.doc()[selector]) == 0 {
		return fmt.Errorf("wait for %s: %w", selector, context.DeadlineExceeded)
	}
	return nil
}

func (d *fakeDriver) WaitNotVisible(_ context.Context, selector string, _ time.Duration) error {
	if len(d.doc()[selector]) > 0 {
		return fmt.Errorf("%s still visible: %w", selector, context.DeadlineExceeded)
	}
	return nil
}

func (d *fakeDriver) FindAll(_ context.Context, parent scrape.Element, selector string) ([]scrape.Element, error) {
	var nodes []*fakeNode
	if parent == nil {
		nodes = d.doc()[selector]
	} else {
		nodes = parent.(*fakeNode).children[selector]
	}
	out := make([]scrape.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n)
	}
	return out, nil
}

func (d *fakeDriver) Find(ctx context.Context, parent scrape.Element, selector string) (scrape.Element, error) {
	all, _ := d.FindAll(ctx, parent, selector)
	if len(all) == 0 {
		return nil, fmt.Errorf("%s: %w", selector, scrape.ErrElementNotFound)
	}
	return all[0], nil
}

func (d *fakeDriver) Text(_ context.Context, el scrape.Element) (string, error) {
	n := el.(*fakeNode)
	return n.text, n.textErr
}

func (d *fakeDriver) Attribute(_ context.Context, el scrape.Element, name string) (string, bool, error) {
	v, ok := el.(*fakeNode).attrs[name]
	return v, ok, nil
}

func (d *fakeDriver) Click(_ context.Context, el scrape.Element) error {
	n := el.(*fakeNode)
	if n.clickErr != nil {
		return n.clickErr
	}
	if n.onClick != nil {
		n.onClick(d)
	}
	return nil
}

func (d *fakeDriver) SendKeys(_ context.Context, _ scrape.Element, keys string) error {
	d.keys = append(d.keys, keys)
	return nil
}

func (d *fakeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeCalls++
	return nil
}

/* ───────── fixtures ───────── */

// fixedNow is the clock used by every test: a window with delta 1 spans 2024-03-01..2024-03-15.
var fixedNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func testSelectors() scrape.Selectors {
	return scrape.Selectors{
		Overlays: []scrape.Overlay{
			{Name: "modal", Selector: ".modal-close"},
			{Name: "consent", Selector: "#consent button"},
		},
		SearchMode:       scrape.SearchModeURL,
		SearchPath:       "/search",
		QueryParam:       "q",
		SearchButton:     ".search-button",
		SearchInput:      ".search-input",
		ResultsContainer: ".results",
		ResultCount:      ".results-count",
		SortParam:        "s",
		SortValue:        "3",
		Card:             ".card",
		Timestamp:        ".ts",
		TimestampAttr:    "data-timestamp",
		Title:            ".title",
		Description:      ".description",
		Image:            ".img",
		ImageAttrs:       []string{"src", "data-src"},
		NextPage:         ".next",
	}
}

// card builds a result card; empty strings leave the corresponding element out.
func card(published time.Time, title, description, imageSrc string) *fakeNode {
	n := &fakeNode{children: map[string][]*fakeNode{}}
	if !published.IsZero() {
		n.children[".ts"] = []*fakeNode{{attrs: map[string]string{
			"data-timestamp": strconv.FormatInt(published.UnixMilli(), 10),
		}}}
	}
	if title != "" {
		n.children[".title"] = []*fakeNode{{text: title}}
	}
	if description != "" {
		n.children[".description"] = []*fakeNode{{text: description}}
	}
	if imageSrc != "" {
		n.children[".img"] = []*fakeNode{{attrs: map[string]string{"src": imageSrc}}}
	}
	return n
}

// resultPage builds a page listing cards, with an enabled next control when hasNext is set.
func resultPage(hasNext bool, cards ...*fakeNode) fakePage {
	p := fakePage{".results": {{}}, ".card": cards}
	if hasNext {
		p[".next"] = []*fakeNode{{
			attrs:   map[string]string{},
			onClick: func(d *fakeDriver) { d.page++ },
		}}
	}
	return p
}

// overlayNode is a close button that removes itself from page when clicked.
func overlayNode(page fakePage, selector string) *fakeNode {
	return &fakeNode{onClick: func(*fakeDriver) { delete(page, selector) }}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

/* ───────── collaborators ───────── */

type stubDownloader struct {
	mu    sync.Mutex
	urls  []string
	err   error
	calls int
}

func (s *stubDownloader) Download(_ context.Context, url, dir string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.urls = append(s.urls, url)
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("%s/image_%d.jpg", dir, s.calls), nil
}

type stubTable struct {
	path    string
	records int
	err     error
}

// WriteRecords leaves a file at path even when it fails, like a writer that
// dies halfway through.
func (s *stubTable) WriteRecords(path string, records []entity.ArticleRecord) error {
	s.path = path
	s.records = len(records)
	if err := os.WriteFile(path, []byte("sheet"), 0o600); err != nil {
		return err
	}
	return s.err
}

type stubArchiver struct {
	src, dest string
	err       error
}

func (s *stubArchiver) Archive(srcDir, destPath string) error {
	s.src, s.dest = srcDir, destPath
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(destPath, []byte("zip"), 0o600)
}
