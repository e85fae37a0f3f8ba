// Package browser provides the scrape.Driver backends: a headless Chrome session
// driven over the DevTools protocol, and a static HTML driver for hosts without a browser.
package browser

import (
	"time"

	"github.com/chromedp/chromedp"
)

// Backend names accepted by NewFactory.
const (
	BackendChrome = "chrome"
	BackendStatic = "static"
)

const (
	defaultWindowWidth  = 1920
	defaultWindowHeight = 1080
	defaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Options configures a browser backend.
type Options struct {
	Backend      string
	ExecPath     string // empty lets chromedp locate the browser
	Headless     bool
	WindowWidth  int
	WindowHeight int
	UserAgent    string

	// HTTPTimeout bounds each page request of the static backend.
	HTTPTimeout time.Duration
}

// DefaultOptions returns options for a headless Chrome at the platform default path.
func DefaultOptions(goos string) Options {
	return Options{
		Backend:      BackendChrome,
		ExecPath:     DefaultBrowserPath(goos),
		Headless:     true,
		WindowWidth:  defaultWindowWidth,
		WindowHeight: defaultWindowHeight,
		UserAgent:    defaultUserAgent,
		HTTPTimeout:  30 * time.Second,
	}
}

// DefaultBrowserPath returns the conventional Chrome binary location for goos.
// On other platforms it returns "" and chromedp searches PATH.
func DefaultBrowserPath(goos string) string {
	switch goos {
	case "darwin":
		return "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"
	case "windows":
		return `C:\Program Files\Google\Chrome\Application\chrome.exe`
	case "linux":
		return "/usr/bin/google-chrome"
	default:
		return ""
	}
}

// allocatorOptions builds the exec allocator flags for opts.
func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	width, height := opts.WindowWidth, opts.WindowHeight
	if width <= 0 || height <= 0 {
		width, height = defaultWindowWidth, defaultWindowHeight
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.WindowSize(width, height),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	return allocOpts
}
