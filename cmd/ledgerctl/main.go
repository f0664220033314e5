// Package main provides offline operations on the stored ledger and
// prediction catalog.
//
// Modes:
//
//	stats               ledger and catalog statistics
//	export              write the ledger to -out (.xlsx or .csv)
//	import-predictions  replace the catalog with the rows of -in
//	import-results      append the rows of -in to the ledger
//	pending             list pending predictions
//	archive             print archived results between -from and -to
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"baccarat-ledger/internal/catalog"
	"baccarat-ledger/internal/config"
	"baccarat-ledger/internal/domain"
	"baccarat-ledger/internal/extractor"
	"baccarat-ledger/internal/ledger"
	"baccarat-ledger/internal/logger"
	"baccarat-ledger/internal/spreadsheet"
	"baccarat-ledger/internal/storage/backend"
)

const dayLayout = "2006-01-02"

func main() {
	mode := flag.String("mode", "stats", "Mode: stats|export|import-predictions|import-results|pending|archive")
	in := flag.String("in", "", "Input spreadsheet (.xlsx)")
	out := flag.String("out", "", "Output file (.xlsx or .csv)")
	from := flag.String("from", "", "Archive start day (YYYY-MM-DD)")
	to := flag.String("to", "", "Archive end day (YYYY-MM-DD, inclusive)")
	tzOffset := flag.Duration("tz-offset", time.Hour, "UTC offset of spreadsheet dates (same as ROLLOVER_TZ_OFFSET)")
	verbose := flag.Bool("verbose", false, "Log store operations")
	flag.Parse()

	logCfg := config.LogConfig{Level: "warn", Encoding: "console", DisableStacktrace: true}
	if *verbose {
		logCfg.Level = "debug"
	}
	log, err := logger.New(logCfg)
	if err != nil {
		fatalf("logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	storeCfg, err := config.LoadStore()
	if err != nil {
		fatalf("config: %v", err)
	}

	loc := config.FixedZone(*tzOffset)

	ctx := context.Background()
	stores, err := backend.Open(ctx, storeCfg, log.Named("storage"))
	if err != nil {
		fatalf("open stores: %v", err)
	}
	defer stores.Close()

	t := &tool{
		ledger: ledger.New(ledger.Options{
			Store:     stores.Results,
			Extractor: extractor.New(extractor.Options{Location: loc}),
			Location:  loc,
			Logger:    log.Named("ledger"),
		}),
		catalog: catalog.New(catalog.Options{Store: stores.Predictions, Logger: log.Named("catalog")}),
		loc:     loc,
		w:       os.Stdout,
	}
	if err := t.ledger.Load(ctx); err != nil {
		fatalf("load ledger: %v", err)
	}
	if err := t.catalog.Load(ctx); err != nil {
		fatalf("load catalog: %v", err)
	}

	switch *mode {
	case "stats":
		t.stats()
	case "export":
		err = t.export(*out)
	case "import-predictions":
		err = t.importPredictions(ctx, *in)
	case "import-results":
		err = t.importResults(ctx, *in)
	case "pending":
		t.pending()
	case "archive":
		if len(stores.Archives) == 0 {
			fatalf("no archive configured (set CLICKHOUSE_DSN or STORAGE=postgres)")
		}
		err = t.archive(ctx, stores.Archives[0], *from, *to)
	default:
		fatalf("unknown mode %q", *mode)
	}
	if err != nil {
		fatalf("%s: %v", *mode, err)
	}
}

type archiveReader interface {
	GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.Result, error)
}

type tool struct {
	ledger  *ledger.Ledger
	catalog *catalog.Catalog
	loc     *time.Location // zone of spreadsheet dates
	w       io.Writer
}

func (t *tool) stats() {
	r := t.ledger.Stats()
	c := t.catalog.Stats()
	fmt.Fprintf(t.w, "Results: %d (player %d %.1f%%, banker %d %.1f%%)\n",
		r.Total, r.PlayerWins, r.PlayerRate, r.BankerWins, r.BankerRate)
	fmt.Fprintf(t.w, "Predictions: %d (launched %d, pending %d)\n", c.Total, c.Launched, c.Pending)
	if n, ok := t.catalog.LastLaunchedNumber(); ok {
		fmt.Fprintf(t.w, "Last launched: #%d\n", n)
	}
}

func (t *tool) export(path string) error {
	if path == "" {
		return fmt.Errorf("-out is required")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		err = t.ledger.ExportCSV(f)
	case ".xlsx":
		err = t.ledger.Export(f)
	default:
		return fmt.Errorf("unsupported extension %q", filepath.Ext(path))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(t.w, "Exported %d results to %s\n", t.ledger.Len(), path)
	return f.Close()
}

func (t *tool) readRows(path string) ([]domain.Row, error) {
	if path == "" {
		return nil, fmt.Errorf("-in is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return spreadsheet.ReadCSV(f, t.loc)
	}
	return spreadsheet.ReadXLSX(f, t.loc)
}

func (t *tool) importPredictions(ctx context.Context, path string) error {
	rows, err := t.readRows(path)
	if err != nil {
		return err
	}
	s, err := t.catalog.Import(ctx, rows)
	if err != nil {
		return err
	}
	fmt.Fprintf(t.w, "Imported %d predictions (replaced %d, skipped: %d launched, %d consecutive, %d duplicate, %d invalid)\n",
		s.Imported, s.Replaced, s.SkippedAlreadyLaunched, s.SkippedConsecutive, s.SkippedDuplicate, s.SkippedInvalid)
	return nil
}

func (t *tool) importResults(ctx context.Context, path string) error {
	rows, err := t.readRows(path)
	if err != nil {
		return err
	}
	s, err := t.ledger.ImportRows(ctx, rows)
	if err != nil {
		return err
	}
	fmt.Fprintf(t.w, "Imported %d results (skipped: %d duplicate, %d consecutive, %d invalid)\n",
		s.Imported, s.SkippedDuplicate, s.SkippedConsecutive, s.SkippedInvalid)
	return nil
}

func (t *tool) pending() {
	tw := tabwriter.NewWriter(t.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tEXPECTED\tSCHEDULED")
	for _, p := range t.catalog.PendingList() {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", p.PredictedNumber, p.ExpectedWinner.Label(), spreadsheet.FormatDateTime(p.ScheduledAt))
	}
	_ = tw.Flush()
}

func (t *tool) archive(ctx context.Context, a archiveReader, from, to string) error {
	start, end, err := dayRange(from, to, time.Now())
	if err != nil {
		return err
	}
	results, err := a.GetByTimeRange(ctx, start, end)
	if err != nil {
		return err
	}
	return spreadsheet.WriteCSV(t.w, spreadsheet.ResultRows(results), t.loc)
}

// dayRange parses inclusive days. Empty bounds default to today.
func dayRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start, end := today, today

	var err error
	if from != "" {
		if start, err = time.Parse(dayLayout, from); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse -from: %w", err)
		}
	}
	if to != "" {
		if end, err = time.Parse(dayLayout, to); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse -to: %w", err)
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("-to before -from")
	}
	return start, end.Add(24*time.Hour - time.Nanosecond), nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "ledgerctl: "+format+"\n", args...)
	os.Exit(1)
}
