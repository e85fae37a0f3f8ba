package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"news-scraper/internal/usecase/scrape"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

const pollInterval = 100 * time.Millisecond

// ChromeDriver drives one Chrome tab over the DevTools protocol.
//
// The browser lives until Close, independent of the context passed to
// NewChromeDriver; each call is bounded by its own context instead.
type ChromeDriver struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      *slog.Logger
	closeOnce   sync.Once
	closeErr    error
}

// NewChromeDriver starts a browser process and opens a tab.
func NewChromeDriver(ctx context.Context, opts Options, logger *slog.Logger) (*ChromeDriver, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocatorOptions(opts)...)

	logf := func(format string, args ...interface{}) {
		logger.Debug(fmt.Sprintf(format, args...), slog.String("component", "chromedp"))
	}
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logf),
		chromedp.WithErrorf(logf))

	d := &ChromeDriver{ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc, logger: logger}

	// The first Run launches the browser and ties its lifetime to the context it
	// is given, so it must run on the tab context itself.
	stop := context.AfterFunc(ctx, cancelTab)
	err := chromedp.Run(tabCtx)
	if !stop() && err == nil {
		err = ctx.Err()
	}
	if err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	logger.Info("browser started",
		slog.String("exec_path", opts.ExecPath),
		slog.Bool("headless", opts.Headless))
	return d, nil
}

// run executes actions on the tab. The call is cancelled when ctx is done or,
// if timeout is positive, when it elapses.
func (d *ChromeDriver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(d.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(d.ctx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ctx.Err(), err)
	}
	return err
}

func node(el scrape.Element) (*cdp.Node, error) {
	n, ok := el.(*cdp.Node)
	if !ok || n == nil {
		return nil, fmt.Errorf("unexpected element %T", el)
	}
	return n, nil
}

// Navigate loads url in the tab and waits for the page to load.
func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx, 0, chromedp.Navigate(url))
}

// CurrentURL returns the URL of the page shown in the tab.
func (d *ChromeDriver) CurrentURL(ctx context.Context) (string, error) {
	var location string
	if err := d.run(ctx, 0, chromedp.Location(&location)); err != nil {
		return "", err
	}
	return location, nil
}

// WaitReady waits until the document body is ready.
func (d *ChromeDriver) WaitReady(ctx context.Context, timeout time.Duration) error {
	return d.run(ctx, timeout, chromedp.WaitReady("body", chromedp.ByQuery))
}

// WaitVisible waits until an element matching selector is visible.
func (d *ChromeDriver) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return d.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// WaitNotVisible polls until no element matches selector or the first match is hidden.
// chromedp.WaitNotVisible would keep waiting for an element that was removed.
func (d *ChromeDriver) WaitNotVisible(ctx context.Context, selector string, timeout time.Duration) error {
	expr := fmt.Sprintf(`(() => { const el = document.querySelector(%q); return !el || el.offsetParent === null; })()`, selector)
	var hidden bool
	return d.run(ctx, timeout, chromedp.Poll(expr, &hidden, chromedp.WithPollingInterval(pollInterval)))
}

// FindAll returns every element matching selector under parent, or under the document when parent is nil.
func (d *ChromeDriver) FindAll(ctx context.Context, parent scrape.Element, selector string) ([]scrape.Element, error) {
	queryOpts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
	if parent != nil {
		p, err := node(parent)
		if err != nil {
			return nil, err
		}
		queryOpts = append(queryOpts, chromedp.FromNode(p))
	}

	var nodes []*cdp.Node
	if err := d.run(ctx, 0, chromedp.Nodes(selector, &nodes, queryOpts...)); err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}

	elements := make([]scrape.Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, n)
	}
	return elements, nil
}

// Find returns the first element matching selector under parent, or ErrElementNotFound.
func (d *ChromeDriver) Find(ctx context.Context, parent scrape.Element, selector string) (scrape.Element, error) {
	elements, err := d.FindAll(ctx, parent, selector)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("%s: %w", selector, scrape.ErrElementNotFound)
	}
	return elements[0], nil
}

// Text returns the text content of el.
func (d *ChromeDriver) Text(ctx context.Context, el scrape.Element) (string, error) {
	n, err := node(el)
	if err != nil {
		return "", err
	}
	var text string
	if err := d.run(ctx, 0, chromedp.TextContent([]cdp.NodeID{n.NodeID}, &text, chromedp.ByNodeID)); err != nil {
		return "", err
	}
	return text, nil
}

// Attribute returns the value of attribute name on el and whether it is set.
func (d *ChromeDriver) Attribute(ctx context.Context, el scrape.Element, name string) (string, bool, error) {
	n, err := node(el)
	if err != nil {
		return "", false, err
	}
	var (
		value string
		ok    bool
	)
	if err := d.run(ctx, 0, chromedp.AttributeValue([]cdp.NodeID{n.NodeID}, name, &value, &ok, chromedp.ByNodeID)); err != nil {
		return "", false, err
	}
	return value, ok, nil
}

// Click clicks el.
func (d *ChromeDriver) Click(ctx context.Context, el scrape.Element) error {
	n, err := node(el)
	if err != nil {
		return err
	}
	return d.run(ctx, 0, chromedp.Click([]cdp.NodeID{n.NodeID}, chromedp.ByNodeID))
}

// SendKeys types keys into el.
func (d *ChromeDriver) SendKeys(ctx context.Context, el scrape.Element, keys string) error {
	n, err := node(el)
	if err != nil {
		return err
	}
	return d.run(ctx, 0, chromedp.SendKeys([]cdp.NodeID{n.NodeID}, keys, chromedp.ByNodeID))
}

// Close shuts the tab and the browser process. Subsequent calls return the first result.
func (d *ChromeDriver) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = chromedp.Cancel(d.ctx)
		d.cancelTab()
		d.cancelAlloc()
		d.logger.Info("browser closed")
	})
	return d.closeErr
}
