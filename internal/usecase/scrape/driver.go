package scrape

import (
	"context"
	"time"

	"news-scraper/internal/domain/entity"
)

// KeyEnter is the key sequence that submits a focused form field.
const KeyEnter = "\r"

// Element is an opaque handle to a DOM node. It is only valid for the Driver
// that returned it and only until that driver navigates away.
type Element any

// Driver is the browser capability the engine needs.
//
// A nil parent in Find and FindAll means the whole document. Find returns
// ErrElementNotFound when nothing matches; FindAll returns an empty slice.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	WaitReady(ctx context.Context, timeout time.Duration) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	WaitNotVisible(ctx context.Context, selector string, timeout time.Duration) error
	Find(ctx context.Context, parent Element, selector string) (Element, error)
	FindAll(ctx context.Context, parent Element, selector string) ([]Element, error)
	Text(ctx context.Context, el Element) (string, error)
	Attribute(ctx context.Context, el Element, name string) (string, bool, error)
	Click(ctx context.Context, el Element) error
	SendKeys(ctx context.Context, el Element, keys string) error
	Close() error
}

// DriverFactory opens a browser session.
type DriverFactory func(ctx context.Context) (Driver, error)

// ImageDownloader stores the image at url in dir and returns the saved path.
type ImageDownloader interface {
	Download(ctx context.Context, url, dir string) (string, error)
}

// TableWriter writes the records, one row each and in order, to path.
type TableWriter interface {
	WriteRecords(path string, records []entity.ArticleRecord) error
}

// Archiver packs srcDir into the archive at destPath and removes srcDir.
type Archiver interface {
	Archive(srcDir, destPath string) error
}

// Search modes.
const (
	SearchModeURL  = "url"
	SearchModeForm = "form"
)

// Overlay is an interstitial that must be closed before the page can be used.
type Overlay struct {
	Name     string
	Selector string
}

// Selectors locates everything the engine touches on the target site.
type Selectors struct {
	Overlays []Overlay

	SearchMode   string
	SearchPath   string
	QueryParam   string
	SearchButton string
	SearchInput  string

	ResultsContainer string
	ResultCount      string

	SortParam string
	SortValue string

	Card          string
	Timestamp     string
	TimestampAttr string
	Title         string
	Description   string
	Image         string
	ImageAttrs    []string

	NextPage          string
	NextDisabledClass string
}

// Options are the per-run parameters of a scrape session.
type Options struct {
	BaseURL      string
	SearchPhrase string
	Delta        int

	OutputDir   string
	OutputFile  string
	ArchiveName string
	ImagesDir   string

	MaxAttempts int
	MaxPages    int // 0 means unlimited

	PageDelay    time.Duration
	PopupTimeout time.Duration
	WaitTimeout  time.Duration

	Location *time.Location
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
