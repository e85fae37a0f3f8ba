package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"news-scraper/internal/usecase/scrape"

	"github.com/mattn/go-runewidth"
)

const maxTitleWidth = 60

// printSummary writes the session result as an aligned text table.
func printSummary(w io.Writer, report *scrape.Report) {
	fmt.Fprintf(w, "Run %s: %d articles in %s (%d attempt(s), %s)\n",
		report.RunID, len(report.Records), report.Window, report.Attempts, report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Spreadsheet: %s\nImages:      %s\n", report.SpreadsheetPath, report.ArchivePath)
	if len(report.Records) == 0 {
		return
	}

	rows := [][]string{{"Date", "Title", "Count", "Money"}}
	for _, r := range report.Records {
		money := "no"
		if r.HasMoneyMention {
			money = "yes"
		}
		rows = append(rows, []string{
			r.DateString(),
			runewidth.Truncate(r.Title, maxTitleWidth, "..."),
			strconv.Itoa(r.PhraseCount),
			money,
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	fmt.Fprintln(w)
	for n, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = runewidth.FillRight(cell, widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
		if n == 0 {
			seps := make([]string, len(widths))
			for i, cw := range widths {
				seps[i] = strings.Repeat("-", cw)
			}
			fmt.Fprintln(w, strings.Join(seps, "  "))
		}
	}
}
