package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateWindow is the inclusive range of calendar dates an article must fall in to be admitted.
// Start and End are midnight in the location the window was computed in.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// NewDateWindow computes the window for the given month delta relative to now.
//
//   - delta 0 or 1: from the first day of the current month to today
//   - delta n > 1: from the first day of the month n-1 months back to today
//
// Month arithmetic rolls back across year boundaries, so delta 3 in January
// starts on the first of November of the previous year.
func NewDateWindow(delta int, now time.Time) (DateWindow, error) {
	if delta < 0 {
		return DateWindow{}, &InvalidDeltaError{Value: strconv.Itoa(delta), Reason: "must not be negative"}
	}

	back := 0
	if delta > 1 {
		back = delta - 1
	}

	// absolute month index, 0 = January of year 0
	months := now.Year()*12 + int(now.Month()) - 1 - back
	year, month := months/12, time.Month(months%12+1)

	loc := now.Location()
	return DateWindow{
		Start: time.Date(year, month, 1, 0, 0, 0, 0, loc),
		End:   truncateToDate(now),
	}, nil
}

// Contains reports whether t falls on a calendar date within the window, boundaries included.
// t is converted to the window's location before its date is taken.
func (w DateWindow) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	d := truncateToDate(t.In(w.Start.Location()))
	return !d.Before(w.Start) && !d.After(w.End)
}

// Days returns the number of calendar days covered by the window.
func (w DateWindow) Days() int {
	if w.End.Before(w.Start) {
		return 0
	}
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// String renders the window as "MM/DD/YYYY - MM/DD/YYYY".
func (w DateWindow) String() string {
	return fmt.Sprintf("%s - %s", w.Start.Format(ReportDateLayout), w.End.Format(ReportDateLayout))
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDelta parses the month delta supplied as configuration input.
// Anything that is not a non-negative base-10 integer yields an InvalidDeltaError.
func ParseDelta(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, &InvalidDeltaError{Value: raw, Reason: "must not be empty"}
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &InvalidDeltaError{Value: raw, Reason: "must be an integer"}
	}
	if n < 0 {
		return 0, &InvalidDeltaError{Value: raw, Reason: "must not be negative"}
	}
	return n, nil
}
