package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"news-scraper/internal/observability/logging"
)

// NavState is the position of a Navigator in the search flow.
type NavState int

// Navigation states, in the only order they can be reached.
const (
	StateIdle NavState = iota
	StateLoaded
	StateSearchSubmitted
	StateSorted
)

func (s NavState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoaded:
		return "loaded"
	case StateSearchSubmitted:
		return "search_submitted"
	case StateSorted:
		return "sorted"
	default:
		return fmt.Sprintf("NavState(%d)", int(s))
	}
}

var resultCountPattern = regexp.MustCompile(`\d[\d,]*`)

// Navigator moves the browser from the site root to a date-sorted result list.
// Its steps must be called in order: Load, Search, SortByNewest.
type Navigator struct {
	driver  Driver
	popups  *PopupDismisser
	sel     Selectors
	timeout time.Duration

	baseURL string
	state   NavState
}

// NewNavigator creates a Navigator in StateIdle. timeout bounds every wait for page content.
func NewNavigator(driver Driver, popups *PopupDismisser, sel Selectors, timeout time.Duration) *Navigator {
	return &Navigator{driver: driver, popups: popups, sel: sel, timeout: timeout}
}

// State returns the current navigation state.
func (n *Navigator) State() NavState {
	return n.state
}

func (n *Navigator) transitionError(want NavState) error {
	return fmt.Errorf("%w: in state %s, want %s", ErrInvalidTransition, n.state, want)
}

// Load opens the site root and waits for the page to be ready.
func (n *Navigator) Load(ctx context.Context, baseURL string) error {
	if n.state != StateIdle {
		return &NavigationError{URL: baseURL, Err: n.transitionError(StateIdle)}
	}
	if err := n.driver.Navigate(ctx, baseURL); err != nil {
		return &NavigationError{URL: baseURL, Err: err}
	}
	if err := n.driver.WaitReady(ctx, n.timeout); err != nil {
		return &NavigationError{URL: baseURL, Err: err}
	}

	n.baseURL = baseURL
	n.state = StateLoaded
	logging.FromContext(ctx).Info("site loaded", slog.String("url", baseURL))
	return nil
}

// Search submits phrase and waits for the result list.
func (n *Navigator) Search(ctx context.Context, phrase string) error {
	if n.state != StateLoaded {
		return &SearchError{Phrase: phrase, Err: n.transitionError(StateLoaded)}
	}

	var err error
	if n.sel.SearchMode == SearchModeForm {
		err = n.submitForm(ctx, phrase)
	} else {
		err = n.navigateToSearch(ctx, phrase)
	}
	if err != nil {
		return &SearchError{Phrase: phrase, Err: err}
	}

	if err := n.driver.WaitVisible(ctx, n.sel.ResultsContainer, n.timeout); err != nil {
		return &SearchError{Phrase: phrase, Err: fmt.Errorf("wait for results: %w", err)}
	}

	if count, ok := n.resultCount(ctx); ok {
		logging.FromContext(ctx).Info("search results found", slog.Int("count", count))
		if count == 0 {
			return &SearchError{Phrase: phrase, Err: ErrNoResults}
		}
	}

	n.state = StateSearchSubmitted
	return nil
}

// SearchURL builds the search page address for phrase under baseURL.
func SearchURL(baseURL, path, param, phrase string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	u.RawQuery = param + "=" + url.QueryEscape(phrase)
	u.Fragment = ""
	return u.String(), nil
}

func (n *Navigator) navigateToSearch(ctx context.Context, phrase string) error {
	target, err := SearchURL(n.baseURL, n.sel.SearchPath, n.sel.QueryParam, phrase)
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Debug("navigating to search page", slog.String("url", target))
	return n.driver.Navigate(ctx, target)
}

func (n *Navigator) submitForm(ctx context.Context, phrase string) error {
	button, err := n.driver.Find(ctx, nil, n.sel.SearchButton)
	if err != nil {
		return fmt.Errorf("find search button: %w", err)
	}
	if err := n.driver.Click(ctx, button); err != nil {
		return fmt.Errorf("open search: %w", err)
	}
	n.popups.Dismiss(ctx)

	if err := n.driver.WaitVisible(ctx, n.sel.SearchInput, n.timeout); err != nil {
		return fmt.Errorf("wait for search input: %w", err)
	}
	input, err := n.driver.Find(ctx, nil, n.sel.SearchInput)
	if err != nil {
		return fmt.Errorf("find search input: %w", err)
	}
	if err := n.driver.Click(ctx, input); err != nil {
		return fmt.Errorf("focus search input: %w", err)
	}
	n.popups.Dismiss(ctx)

	if err := n.driver.SendKeys(ctx, input, phrase+KeyEnter); err != nil {
		return fmt.Errorf("type search phrase: %w", err)
	}
	return nil
}

// resultCount reads the first integer of the result count element, if one is configured and present.
func (n *Navigator) resultCount(ctx context.Context) (int, bool) {
	if n.sel.ResultCount == "" {
		return 0, false
	}
	el, err := n.driver.Find(ctx, nil, n.sel.ResultCount)
	if err != nil {
		return 0, false
	}
	text, err := n.driver.Text(ctx, el)
	if err != nil {
		return 0, false
	}
	digits := strings.ReplaceAll(resultCountPattern.FindString(text), ",", "")
	count, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return count, true
}

// SortByNewest reloads the current result list ordered by publication date, newest first.
func (n *Navigator) SortByNewest(ctx context.Context) error {
	if n.state != StateSearchSubmitted {
		return &SortError{Err: n.transitionError(StateSearchSubmitted)}
	}

	current, err := n.driver.CurrentURL(ctx)
	if err != nil {
		return &SortError{Err: fmt.Errorf("read current URL: %w", err)}
	}
	sorted, err := SortedURL(current, n.sel.SortParam, n.sel.SortValue)
	if err != nil {
		return &SortError{URL: current, Err: err}
	}

	if err := n.driver.Navigate(ctx, sorted); err != nil {
		return &SortError{URL: sorted, Err: err}
	}
	if err := n.driver.WaitReady(ctx, n.timeout); err != nil {
		return &SortError{URL: sorted, Err: err}
	}

	n.state = StateSorted
	logging.FromContext(ctx).Info("results sorted by newest", slog.String("url", sorted))
	return nil
}

// SortedURL drops the fragment of current and sets param=value in its query.
func SortedURL(current, param, value string) (string, error) {
	if current == "" {
		return "", errors.New("current URL is empty")
	}
	u, err := url.Parse(current)
	if err != nil {
		return "", fmt.Errorf("parse current URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unexpected URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("current URL has no host")
	}

	u.Fragment = ""
	u.RawFragment = ""
	q := u.Query()
	q.Set(param, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
