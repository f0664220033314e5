package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"baccarat-ledger/internal/domain"
)

// WriteCSV writes rows with the same header and cell formats as WriteXLSX.
func WriteCSV(w io.Writer, rows []domain.Row, loc *time.Location) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if len(rows) == 0 {
		if err := cw.Write([]string{EmptyPlaceholder, "", ""}); err != nil {
			return fmt.Errorf("write csv placeholder: %w", err)
		}
	}
	for _, r := range rows {
		if err := cw.Write(record(r, loc)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV reads rows written by WriteCSV, with the same skip rules as ReadXLSX.
func ReadCSV(r io.Reader, loc *time.Location) ([]domain.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	parseDate := func(s string) time.Time {
		t, _ := ParseDateTime(s, loc)
		return t
	}

	var rows []domain.Row
	for line := 1; ; line++ {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if line == 1 {
			continue
		}
		row, ok, err := parseRecord(cells, parseDate)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
