// Package scrape implements the news scraping engine: it drives a browser through
// the search site, dismisses interstitial overlays, walks result pages, extracts one
// record per article inside the date window and retries the whole session on failure.
package scrape

import (
	"errors"
	"fmt"
)

// Sentinel errors for scrape operations.
var (
	// ErrElementNotFound indicates that a selector matched nothing.
	ErrElementNotFound = errors.New("element not found")

	// ErrNoResults indicates that the search reported zero matching articles.
	ErrNoResults = errors.New("search returned no results")

	// ErrInvalidTransition indicates a navigation step was called out of order.
	ErrInvalidTransition = errors.New("invalid navigation transition")

	// ErrUnsupported indicates that the driver backend cannot perform the action.
	ErrUnsupported = errors.New("operation not supported by driver")
)

// NavigationError is returned when the site root cannot be loaded.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate to %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// SearchError is returned when submitting the search or waiting for its results fails.
type SearchError struct {
	Phrase string
	Err    error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %q: %v", e.Phrase, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// SortError is returned when the results page cannot be re-sorted by date.
type SortError struct {
	URL string
	Err error
}

func (e *SortError) Error() string {
	return fmt.Sprintf("sort results at %q: %v", e.URL, e.Err)
}

func (e *SortError) Unwrap() error { return e.Err }

// PaginationError is returned when a result page cannot be read or advanced.
type PaginationError struct {
	Page int
	Err  error
}

func (e *PaginationError) Error() string {
	return fmt.Sprintf("result page %d: %v", e.Page, e.Err)
}

func (e *PaginationError) Unwrap() error { return e.Err }

// SessionExhaustedError is returned when every session attempt failed.
// Err is the cause of the last attempt.
type SessionExhaustedError struct {
	Attempts int
	Err      error
}

func (e *SessionExhaustedError) Error() string {
	return fmt.Sprintf("scrape session failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *SessionExhaustedError) Unwrap() error { return e.Err }

// ExportError is returned when the spreadsheet or the image archive cannot be written.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
