// Package entity defines the core domain types of the scraper: the date window
// used to admit articles and the record produced for every admitted article.
package entity

import "time"

// NotAvailable is the placeholder stored in a text field whose value could not be extracted.
const NotAvailable = "N/A"

// ReportDateLayout is the layout used when a date is rendered into the report (MM/DD/YYYY).
const ReportDateLayout = "01/02/2006"

// ArticleRecord is the structured result extracted from one search result card.
// Records are created once per admitted article and never mutated afterwards.
type ArticleRecord struct {
	Title           string
	Date            time.Time
	Description     string
	ImagePath       string
	PhraseCount     int
	HasMoneyMention bool
}

// DateString renders the publication date for the report.
func (r ArticleRecord) DateString() string {
	return r.Date.Format(ReportDateLayout)
}

// OrNotAvailable returns s, or NotAvailable when s is blank.
func OrNotAvailable(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}
