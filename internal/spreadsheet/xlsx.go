package spreadsheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"baccarat-ledger/internal/domain"
)

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// columnWidths of A, B and C.
var columnWidths = []float64{25, 15, 30}

// WriteXLSX writes rows as a styled workbook with a header row. Dates are
// rendered in loc (UTC when nil). An empty slice produces a single
// placeholder row.
func WriteXLSX(w io.Writer, rows []domain.Row, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
	}
	if err := f.SetCellStyle(SheetName, "A1", "C1", styles.header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("set width %s: %w", col, err)
		}
	}

	if len(rows) == 0 {
		if err := f.SetCellValue(SheetName, "A2", EmptyPlaceholder); err != nil {
			return fmt.Errorf("set placeholder: %w", err)
		}
		if err := f.SetCellStyle(SheetName, "A2", "A2", styles.center); err != nil {
			return fmt.Errorf("style placeholder: %w", err)
		}
	}

	for i, r := range rows {
		rowNum := i + 2
		cells := record(r, loc)
		for col, value := range cells {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			if err := f.SetCellStr(SheetName, cell, value); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
		a, _ := excelize.CoordinatesToCellName(1, rowNum)
		b, _ := excelize.CoordinatesToCellName(2, rowNum)
		c, _ := excelize.CoordinatesToCellName(3, rowNum)
		if err := f.SetCellStyle(SheetName, a, a, styles.left); err != nil {
			return fmt.Errorf("style row %d: %w", rowNum, err)
		}
		if err := f.SetCellStyle(SheetName, b, c, styles.centerBordered); err != nil {
			return fmt.Errorf("style row %d: %w", rowNum, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type styleSet struct {
	header         int
	left           int
	centerBordered int
	center         int
}

func newStyles(f *excelize.File) (styleSet, error) {
	var s styleSet
	var err error

	s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"D9D9D9"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
	if err != nil {
		return s, fmt.Errorf("header style: %w", err)
	}

	s.left, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left"},
		Border:    thinBorder,
	})
	if err != nil {
		return s, fmt.Errorf("left style: %w", err)
	}

	s.centerBordered, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorder,
	})
	if err != nil {
		return s, fmt.Errorf("center style: %w", err)
	}

	s.center, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return s, fmt.Errorf("placeholder style: %w", err)
	}

	return s, nil
}

// ReadXLSX reads the active sheet of a workbook. The header row and rows with
// an empty cell among the first 3 are skipped. Date cells may hold text or an
// Excel serial, both read as wall clock time in loc (UTC when nil); an
// unparsable date yields a zero At.
func ReadXLSX(r io.Reader, loc *time.Location) ([]domain.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	parseDate := func(s string) time.Time { return parseCellDate(s, loc) }

	var rows []domain.Row
	for i, cells := range raw {
		if i == 0 {
			continue
		}
		row, ok, err := parseRecord(cells, parseDate)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// parseCellDate accepts text layouts, then an Excel date serial.
func parseCellDate(s string, loc *time.Location) time.Time {
	if t, ok := ParseDateTime(s, loc); ok {
		return t
	}
	serial, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || serial <= 0 {
		return time.Time{}
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}
	}
	t = t.Round(time.Second)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, orUTC(loc))
}
