package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"
)

// Writer persists a table of rows to path.
type Writer interface {
	Write(path string, rows []Row) error
}

// WriterFor picks a writer from the file extension: .xlsx gets a
// spreadsheet, anything else CSV.
func WriterFor(path string) Writer {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return XLSXWriter{}
	}
	return CSVWriter{}
}

const xlsxDateFormat = "yyyy-mm-dd"

// XLSXWriter writes a single-sheet workbook. Number cells are stored as
// numbers and dates as date serials, so the sheet can total them.
type XLSXWriter struct {
	// Sheet defaults to "Sheet1".
	Sheet string
}

// Write implements Writer.
func (w XLSXWriter) Write(path string, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	if w.Sheet != "" {
		if err := f.SetSheetName(sheet, w.Sheet); err != nil {
			return fmt.Errorf("naming sheet: %w", err)
		}
		sheet = w.Sheet
	}

	styles := &xlsxStyles{f: f, numbers: make(map[int32]int)}
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			if err := styles.setCell(sheet, cell, v); err != nil {
				return fmt.Errorf("writing %s: %w", cell, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// xlsxStyles creates each number format once per workbook.
type xlsxStyles struct {
	f       *excelize.File
	numbers map[int32]int
	date    int
}

func (s *xlsxStyles) setCell(sheet, cell string, v any) error {
	switch c := v.(type) {
	case nil:
		return nil
	case string:
		if c == "" {
			return nil
		}
		return s.f.SetCellStr(sheet, cell, c)
	case Number:
		style, err := s.numberStyle(c.Places)
		if err != nil {
			return err
		}
		if err := s.f.SetCellFloat(sheet, cell, c.Value.InexactFloat64(), -1, 64); err != nil {
			return err
		}
		return s.f.SetCellStyle(sheet, cell, cell, style)
	case civil.Date:
		style, err := s.dateStyle()
		if err != nil {
			return err
		}
		if err := s.f.SetCellValue(sheet, cell, c.In(time.UTC)); err != nil {
			return err
		}
		return s.f.SetCellStyle(sheet, cell, cell, style)
	default:
		return s.f.SetCellValue(sheet, cell, c)
	}
}

func (s *xlsxStyles) numberStyle(places int32) (int, error) {
	if id, ok := s.numbers[places]; ok {
		return id, nil
	}
	format := "0"
	if places > 0 {
		format += "." + strings.Repeat("0", int(places))
	}
	id, err := s.f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return 0, fmt.Errorf("creating number style: %w", err)
	}
	s.numbers[places] = id
	return id, nil
}

func (s *xlsxStyles) dateStyle() (int, error) {
	if s.date != 0 {
		return s.date, nil
	}
	format := xlsxDateFormat
	id, err := s.f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return 0, fmt.Errorf("creating date style: %w", err)
	}
	s.date = id
	return id, nil
}

// CSVWriter writes comma-separated values, numbers at their fixed places.
type CSVWriter struct{}

// Write implements Writer.
func (CSVWriter) Write(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	for i, row := range rows {
		if err := cw.Write(FormatRow(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return f.Close()
}
