package metrics

import (
	"time"
)

// Outcomes recorded for a search result card.
const (
	OutcomeAdmitted    = "admitted"
	OutcomeOutOfWindow = "out_of_window"
	OutcomeNoDate      = "no_date"
)

// RecordSession records the final status and duration of a scrape session.
// Status is one of "success", "exhausted" or "failure".
func RecordSession(status string, duration time.Duration) {
	SessionsTotal.WithLabelValues(status).Inc()
	SessionDuration.Observe(duration.Seconds())
}

// RecordAttempt records the result of one pipeline attempt.
func RecordAttempt(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	SessionAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordRecordsExported sets the number of records written by the last successful session.
func RecordRecordsExported(count int) {
	RecordsExported.Set(float64(count))
}

// RecordPageVisited increments the result page counter.
func RecordPageVisited() {
	PagesVisitedTotal.Inc()
}

// RecordArticleOutcome records what happened to a search result card.
func RecordArticleOutcome(outcome string) {
	ArticlesProcessedTotal.WithLabelValues(outcome).Inc()
}

// RecordFieldFallback records that a field fell back to N/A.
// Field is one of "title", "description" or "image".
func RecordFieldFallback(field string) {
	FieldFallbacksTotal.WithLabelValues(field).Inc()
}

// RecordPopupDismissed records that an overlay was found and closed.
func RecordPopupDismissed(overlay string) {
	PopupsDismissedTotal.WithLabelValues(overlay).Inc()
}

// RecordImageDownloadSuccess records a successful image download.
//
// Example:
//
//	start := time.Now()
//	path, size, err := d.fetch(ctx, url, dir)
//	if err == nil {
//	    RecordImageDownloadSuccess(time.Since(start), size)
//	}
func RecordImageDownloadSuccess(duration time.Duration, size int64) {
	ImageDownloadsTotal.WithLabelValues("success").Inc()
	ImageDownloadDuration.Observe(duration.Seconds())
	if size > 0 {
		ImageDownloadSize.Observe(float64(size))
	}
}

// RecordImageDownloadFailure records a failed image download.
func RecordImageDownloadFailure(duration time.Duration) {
	ImageDownloadsTotal.WithLabelValues("failure").Inc()
	ImageDownloadDuration.Observe(duration.Seconds())
}

// SetImageCircuitOpen exports the image circuit breaker state.
func SetImageCircuitOpen(open bool) {
	if open {
		ImageCircuitOpen.Set(1)
		return
	}
	ImageCircuitOpen.Set(0)
}
