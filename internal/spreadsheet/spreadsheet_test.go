package spreadsheet

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"baccarat-ledger/internal/domain"
)

func sampleRows() []domain.Row {
	return []domain.Row{
		{At: time.Date(2024, 5, 12, 14, 30, 0, 0, time.UTC), Number: 60, WinnerText: "Joueur"},
		{At: time.Date(2024, 5, 12, 14, 33, 0, 0, time.UTC), Number: 881, WinnerText: "Banquier"},
		{At: time.Date(2024, 5, 12, 23, 59, 0, 0, time.UTC), Number: 7, WinnerText: "Joueur"},
	}
}

func assertRowsEqual(t *testing.T, got, want []domain.Row) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].At.Equal(want[i].At) {
			t.Errorf("row %d: At = %v, want %v", i, got[i].At, want[i].At)
		}
		if got[i].Number != want[i].Number {
			t.Errorf("row %d: Number = %d, want %d", i, got[i].Number, want[i].Number)
		}
		if got[i].WinnerText != want[i].WinnerText {
			t.Errorf("row %d: WinnerText = %q, want %q", i, got[i].WinnerText, want[i].WinnerText)
		}
	}
}

func TestXLSX_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleRows(), nil); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	got, err := ReadXLSX(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatalf("ReadXLSX() error = %v", err)
	}
	assertRowsEqual(t, got, sampleRows())
}

func TestWriteXLSX_Layout(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, sampleRows()[:1], nil); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	if name := f.GetSheetName(f.GetActiveSheetIndex()); name != SheetName {
		t.Errorf("sheet name = %q, want %q", name, SheetName)
	}

	want := map[string]string{
		"A1": "Date & Heure",
		"B1": "Numéro",
		"C1": "Victoire (Joueur/Banquier)",
		"A2": "12/05/2024 - 14:30",
		"B2": "060",
		"C2": "Joueur",
	}
	for cell, v := range want {
		got, err := f.GetCellValue(SheetName, cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s) error = %v", cell, err)
		}
		if got != v {
			t.Errorf("%s = %q, want %q", cell, got, v)
		}
	}

	width, err := f.GetColWidth(SheetName, "C")
	if err != nil {
		t.Fatalf("GetColWidth() error = %v", err)
	}
	if width != 30 {
		t.Errorf("column C width = %v, want 30", width)
	}
}

func TestWriteXLSX_EmptyPlaceholder(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, nil, nil); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	got, _ := f.GetCellValue(SheetName, "A2")
	if got != EmptyPlaceholder {
		t.Errorf("A2 = %q, want placeholder", got)
	}

	rows, err := ReadXLSX(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatalf("ReadXLSX() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("placeholder export read back as %d rows", len(rows))
	}
}

func TestReadXLSX_SerialDatesAndSkips(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	at := time.Date(2024, 5, 12, 9, 15, 0, 0, time.UTC)

	_ = f.SetSheetRow(sheet, "A1", &[]any{"Date", "Numero", "Victoire"})
	_ = f.SetSheetRow(sheet, "A2", &[]any{at, 881, "banquier"})
	_ = f.SetSheetRow(sheet, "A3", &[]any{"not a date", 12, "Player"})
	_ = f.SetSheetRow(sheet, "A4", &[]any{at, 13, ""})
	_ = f.SetSheetRow(sheet, "A5", &[]any{"", "", ""})

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	f.Close()

	rows, err := ReadXLSX(&buf, nil)
	if err != nil {
		t.Fatalf("ReadXLSX() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if !rows[0].At.Equal(at) || rows[0].Number != 881 || rows[0].WinnerText != "banquier" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if !rows[1].At.IsZero() || rows[1].Number != 12 {
		t.Errorf("row 1 = %+v, want zero At and number 12", rows[1])
	}
}

func TestReadXLSX_BadNumber(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	_ = f.SetSheetRow(sheet, "A1", &[]any{"Date", "Numero", "Victoire"})
	_ = f.SetSheetRow(sheet, "A2", &[]any{"12/05/2024 - 14:30", "abc", "Joueur"})

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	f.Close()

	if _, err := ReadXLSX(&buf, nil); err == nil {
		t.Fatal("ReadXLSX() should fail on a non numeric game number")
	}
}

func TestCSV_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRows(), nil); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "Date & Heure,Numéro,Victoire (Joueur/Banquier)" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "12/05/2024 - 14:30,060,Joueur" {
		t.Errorf("first row = %q", lines[1])
	}

	got, err := ReadCSV(strings.NewReader(buf.String()), nil)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	assertRowsEqual(t, got, sampleRows())
}

func TestRoundTrip_KeepsZone(t *testing.T) {
	loc := time.FixedZone("UTC+1", 3600)
	at := time.Date(2024, 5, 12, 23, 30, 0, 0, loc)
	rows := []domain.Row{{At: at, Number: 42, WinnerText: "Joueur"}}

	var xlsx bytes.Buffer
	if err := WriteXLSX(&xlsx, rows, loc); err != nil {
		t.Fatalf("WriteXLSX() error = %v", err)
	}
	got, err := ReadXLSX(&xlsx, loc)
	if err != nil {
		t.Fatalf("ReadXLSX() error = %v", err)
	}
	assertRowsEqual(t, got, rows)

	// A UTC instant is rendered as wall clock time in loc
	var csvBuf bytes.Buffer
	if err := WriteCSV(&csvBuf, []domain.Row{{At: at.UTC(), Number: 42, WinnerText: "Joueur"}}, loc); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if !strings.Contains(csvBuf.String(), "12/05/2024 - 23:30,042") {
		t.Errorf("csv = %q, want time in UTC+1", csvBuf.String())
	}
	got, err = ReadCSV(&csvBuf, loc)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	assertRowsEqual(t, got, rows)
}

func TestReadXLSX_SerialDateInZone(t *testing.T) {
	loc := time.FixedZone("UTC+1", 3600)
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	_ = f.SetSheetRow(sheet, "A1", &[]any{"Date", "Numero", "Victoire"})
	_ = f.SetSheetRow(sheet, "A2", &[]any{time.Date(2024, 5, 12, 9, 15, 0, 0, time.UTC), 7, "Joueur"})

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	f.Close()

	rows, err := ReadXLSX(&buf, loc)
	if err != nil {
		t.Fatalf("ReadXLSX() error = %v", err)
	}
	want := time.Date(2024, 5, 12, 9, 15, 0, 0, loc)
	if len(rows) != 1 || !rows[0].At.Equal(want) {
		t.Errorf("rows = %+v, want At %v", rows, want)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"060", 60, false},
		{" 881 ", 881, false},
		{"12.0", 12, false},
		{"12.5", 0, true},
		{"x", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseNumber(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseNumber(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseNumber(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFormatDateTime_Zero(t *testing.T) {
	if got := FormatDateTime(time.Time{}); got != "N/A" {
		t.Errorf("FormatDateTime(zero) = %q, want N/A", got)
	}
}
