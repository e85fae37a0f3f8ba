package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"news-scraper/internal/domain/entity"
	"news-scraper/internal/observability/logging"
	"news-scraper/internal/observability/metrics"
	"news-scraper/internal/observability/tracing"
	"news-scraper/internal/resilience/retry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Default output names used when Options leaves them empty.
const (
	DefaultOutputFile  = "output.xlsx"
	DefaultArchiveName = "output_images.zip"
	DefaultImagesDir   = "images"
)

// Report describes a successful scrape session.
type Report struct {
	RunID           string
	Window          entity.DateWindow
	Records         []entity.ArticleRecord
	SpreadsheetPath string
	ArchivePath     string
	Attempts        int
	Duration        time.Duration
}

// Runner executes a complete scrape session: it opens one browser, runs the
// navigation and pagination pipeline under a retry budget and exports the result.
type Runner struct {
	NewDriver DriverFactory
	Images    ImageDownloader
	Table     TableWriter
	Archiver  Archiver

	// Retry controls the attempt budget and the backoff between attempts.
	// MaxAttempts is taken from Options when NewRunner builds it.
	Retry retry.Config

	// Clock returns the current time; the date window is computed from it.
	Clock func() time.Time

	opts   Options
	sel    Selectors
	logger *slog.Logger
}

// NewRunner creates a Runner with defaults applied to opts.
func NewRunner(opts Options, sel Selectors, newDriver DriverFactory, images ImageDownloader,
	table TableWriter, archiver Archiver, logger *slog.Logger) *Runner {
	if opts.OutputFile == "" {
		opts.OutputFile = DefaultOutputFile
	}
	if opts.ArchiveName == "" {
		opts.ArchiveName = DefaultArchiveName
	}
	if opts.ImagesDir == "" {
		opts.ImagesDir = filepath.Join(opts.OutputDir, DefaultImagesDir)
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg := retry.SessionConfig()
	if opts.MaxAttempts > 0 {
		cfg.MaxAttempts = opts.MaxAttempts
	}

	return &Runner{
		NewDriver: newDriver,
		Images:    images,
		Table:     table,
		Archiver:  archiver,
		Retry:     cfg,
		Clock:     time.Now,
		opts:      opts,
		sel:       sel,
		logger:    logger,
	}
}

// Run executes the session. The browser is opened once and closed exactly once
// on every return path. Pipeline failures are retried from the site root until
// the attempt budget is spent, which yields a *SessionExhaustedError. A cancelled
// context stops the session without further attempts.
func (r *Runner) Run(ctx context.Context) (report *Report, err error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = logging.ContextWithRunID(ctx, runID)
	logger := logging.WithRunID(ctx, r.logger)
	ctx = logging.WithLogger(ctx, logger)

	ctx, span := tracing.StartSpan(ctx, "scrape.session",
		attribute.String("run_id", runID),
		attribute.String("search_phrase", r.opts.SearchPhrase))
	defer func() {
		tracing.EndSpan(span, err)
		metrics.RecordSession(sessionStatus(err), time.Since(start))
	}()

	if err := entity.ValidateSearchPhrase(r.opts.SearchPhrase); err != nil {
		return nil, err
	}
	window, err := entity.NewDateWindow(r.opts.Delta, r.Clock().In(r.opts.Location))
	if err != nil {
		return nil, err
	}
	logger.Info("scrape session started",
		slog.String("search_phrase", r.opts.SearchPhrase),
		slog.String("window", window.String()),
		slog.Int("days", window.Days()),
		slog.Int("max_attempts", r.Retry.MaxAttempts))

	driver, err := r.NewDriver(ctx)
	if err != nil {
		return nil, fmt.Errorf("open browser: %w", err)
	}
	defer func() {
		if cerr := driver.Close(); cerr != nil {
			logger.Warn("failed to close browser", slog.Any("error", cerr))
		}
	}()

	popups := NewPopupDismisser(driver, r.sel.Overlays, r.opts.PopupTimeout)

	var records []entity.ArticleRecord
	attempts := 0
	err = retry.WithPolicy(ctx, r.Retry,
		func(error) bool { return ctx.Err() == nil },
		func(attempt int, cause error) {
			logger.Warn("scrape attempt failed",
				slog.Int("attempt", attempt),
				slog.Any("error", cause))
			popups.Dismiss(ctx)
		},
		func(attempt int) error {
			attempts = attempt
			recs, err := r.attempt(ctx, driver, popups, window, attempt)
			metrics.RecordAttempt(err == nil)
			if err != nil {
				return err
			}
			records = recs
			return nil
		})
	if err != nil {
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			return nil, &SessionExhaustedError{Attempts: exhausted.Attempts, Err: exhausted.Err}
		}
		return nil, err
	}

	report = &Report{
		RunID:    runID,
		Window:   window,
		Records:  records,
		Attempts: attempts,
	}
	if err := r.export(report); err != nil {
		return nil, err
	}
	report.Duration = time.Since(start)

	metrics.RecordRecordsExported(len(records))
	logger.Info("scrape session completed",
		slog.Int("records", len(records)),
		slog.Int("attempts", attempts),
		slog.String("spreadsheet", report.SpreadsheetPath),
		slog.String("archive", report.ArchivePath),
		slog.Duration("duration", report.Duration))
	return report, nil
}

// attempt runs the pipeline once from the site root.
func (r *Runner) attempt(ctx context.Context, driver Driver, popups *PopupDismisser,
	window entity.DateWindow, attempt int) (records []entity.ArticleRecord, err error) {
	ctx, span := tracing.StartSpan(ctx, "scrape.attempt", attribute.Int("attempt", attempt))
	defer func() { tracing.EndSpan(span, err) }()

	// Navigation, extraction and pagination log through the context logger.
	logger := logging.WithFields(logging.FromContext(ctx), map[string]interface{}{"attempt": attempt})
	ctx = logging.WithLogger(ctx, logger)
	logger.Info("scrape attempt started")

	if err := resetDir(r.opts.ImagesDir); err != nil {
		return nil, fmt.Errorf("prepare images dir: %w", err)
	}

	nav := NewNavigator(driver, popups, r.sel, r.opts.WaitTimeout)
	if err := nav.Load(ctx, r.opts.BaseURL); err != nil {
		return nil, err
	}
	popups.Dismiss(ctx)
	if err := nav.Search(ctx, r.opts.SearchPhrase); err != nil {
		return nil, err
	}
	popups.Dismiss(ctx)
	if err := nav.SortByNewest(ctx); err != nil {
		return nil, err
	}
	popups.Dismiss(ctx)

	extractor := NewExtractor(driver, r.sel, window, r.opts.SearchPhrase,
		r.Images, r.opts.ImagesDir, r.opts.BaseURL)
	paginator := NewPaginator(driver, popups, extractor, r.sel,
		r.opts.MaxPages, r.opts.PageDelay, r.opts.WaitTimeout)
	records, err = paginator.Collect(ctx)
	if err != nil {
		return nil, err
	}
	popups.Dismiss(ctx)

	return records, nil
}

// export writes the spreadsheet and the image archive. Either both end up in
// OutputDir or neither does: the spreadsheet is written under a staging name
// and only moved into place once the archive exists.
func (r *Runner) export(report *Report) error {
	if err := os.MkdirAll(r.opts.OutputDir, 0o750); err != nil {
		return &ExportError{Path: r.opts.OutputDir, Err: err}
	}

	report.SpreadsheetPath = filepath.Join(r.opts.OutputDir, r.opts.OutputFile)
	staging := stagingPath(report.SpreadsheetPath)
	if err := r.Table.WriteRecords(staging, report.Records); err != nil {
		removeQuietly(staging)
		return &ExportError{Path: report.SpreadsheetPath, Err: err}
	}

	report.ArchivePath = filepath.Join(r.opts.OutputDir, r.opts.ArchiveName)
	if err := r.Archiver.Archive(r.opts.ImagesDir, report.ArchivePath); err != nil {
		removeQuietly(staging)
		return &ExportError{Path: report.ArchivePath, Err: err}
	}

	if err := os.Rename(staging, report.SpreadsheetPath); err != nil {
		removeQuietly(staging)
		removeQuietly(report.ArchivePath)
		return &ExportError{Path: report.SpreadsheetPath, Err: fmt.Errorf("move spreadsheet into place: %w", err)}
	}
	return nil
}

// stagingPath keeps the file extension, since spreadsheet writers check it.
func stagingPath(path string) string {
	dir, name := filepath.Split(path)
	return filepath.Join(dir, ".partial-"+name)
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove partial export", slog.String("path", path), slog.Any("error", err))
	}
}

// resetDir removes dir with its contents and creates it empty.
func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o750)
}

func sessionStatus(err error) string {
	var exhausted *SessionExhaustedError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &exhausted):
		return "exhausted"
	default:
		return "failure"
	}
}
