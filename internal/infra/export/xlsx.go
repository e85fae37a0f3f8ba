// Package export writes the scrape result: a spreadsheet with one row per
// article and a zip archive of the downloaded images.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"news-scraper/internal/domain/entity"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the records.
const SheetName = "Articles"

// Headers is the spreadsheet header row.
var Headers = []string{
	"Title",
	"Date",
	"Description",
	"Picture Filename",
	"Search Phrase Count",
	"Money Mention",
}

// XLSXWriter writes records to an Excel workbook.
type XLSXWriter struct{}

// NewXLSXWriter creates an XLSXWriter.
func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{}
}

// WriteRecords writes the header row and one row per record, in order, to path.
// An existing file at path is replaced.
func (w *XLSXWriter) WriteRecords(path string, records []entity.ArticleRecord) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			r.Title,
			r.DateString(),
			r.Description,
			pictureName(r.ImagePath),
			r.PhraseCount,
			r.HasMoneyMention,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush rows: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// pictureName reduces an image path to the file name stored in the archive.
func pictureName(imagePath string) string {
	if imagePath == "" || imagePath == entity.NotAvailable {
		return entity.NotAvailable
	}
	return filepath.Base(imagePath)
}
