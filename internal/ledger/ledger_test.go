package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baccarat-ledger/internal/domain"
	"baccarat-ledger/internal/extractor"
	"baccarat-ledger/internal/spreadsheet"
	"baccarat-ledger/internal/storage/memory"
)

var fixedNow = time.Date(2024, 5, 12, 14, 30, 0, 0, time.UTC)

func playerMsg(n int) string {
	return fmt.Sprintf("#N%d. ✅4(A♠️2♥️9♦️) - 7(3♣️4♣️)", n)
}

func newTestLedger(t *testing.T) (*Ledger, *memory.ResultStore) {
	t.Helper()
	store := memory.NewResultStore()
	l := New(Options{
		Store:     store,
		Extractor: extractor.New(extractor.Options{Now: func() time.Time { return fixedNow }, Location: time.UTC}),
		Now:       func() time.Time { return fixedNow },
	})
	require.NoError(t, l.Load(context.Background()))
	return l, store
}

func TestRecord_AcceptThenAlreadyRecorded(t *testing.T) {
	l, store := newTestLedger(t)
	ctx := context.Background()

	msg := "#N60. 4(A♠️2♥️9♦️) - ✅7(3♣️4♣️)"
	out, err := l.Record(ctx, msg)
	require.NoError(t, err)
	require.True(t, out.Accepted)
	assert.Equal(t, 60, out.Result.GameNumber)
	assert.Equal(t, domain.WinnerPlayer, out.Result.Winner)
	assert.Equal(t, 1, store.Saves())

	out, err = l.Record(ctx, msg)
	require.NoError(t, err)
	assert.False(t, out.Accepted)
	assert.Equal(t, extractor.ReasonAlreadyRecorded, out.Reason)
	assert.Equal(t, 1, store.Saves(), "rejection must not persist")
	assert.Equal(t, 1, l.Len())
}

func TestRecord_ConsecutiveAgainstAllRecords(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	for _, n := range []int{5, 9} {
		out, err := l.Record(ctx, playerMsg(n))
		require.NoError(t, err)
		require.True(t, out.Accepted, "game %d", n)
	}

	tests := []struct {
		number   int
		accepted bool
		reason   extractor.Reason
	}{
		{6, false, extractor.ReasonConsecutive},
		{10, false, extractor.ReasonConsecutive},
		{11, true, extractor.ReasonNone},
		{12, false, extractor.ReasonConsecutive},
	}
	for _, tt := range tests {
		out, err := l.Record(ctx, playerMsg(tt.number))
		require.NoError(t, err)
		assert.Equal(t, tt.accepted, out.Accepted, "game %d", tt.number)
		assert.Equal(t, tt.reason, out.Reason, "game %d", tt.number)
	}

	var numbers []int
	for _, r := range l.Results() {
		numbers = append(numbers, r.GameNumber)
	}
	assert.Equal(t, []int{5, 9, 11}, numbers)
}

func TestRecord_RejectsWithoutTwoGroupsOfThree(t *testing.T) {
	l, store := newTestLedger(t)

	out, err := l.Record(context.Background(), "#N249. ✅8(6♦️2♠️) - 1(5♦️6♦️)")
	require.NoError(t, err)
	assert.False(t, out.Accepted)
	assert.Equal(t, extractor.ReasonNoGroup, out.Reason)
	assert.Zero(t, store.Saves())
}

func TestStats(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	empty := l.Stats()
	assert.Zero(t, empty.Total)
	assert.Zero(t, empty.PlayerRate)
	assert.Zero(t, empty.BankerRate)

	_, _ = l.Record(ctx, playerMsg(10))
	_, _ = l.Record(ctx, playerMsg(20))
	_, _ = l.Record(ctx, "#N30. 4(3♣️4♣️) - ✅7(A♠️2♥️9♦️)")
	_, _ = l.Record(ctx, "#N40. 4(3♣️4♣️) - ✅7(A♠️2♥️9♦️)")

	s := l.Stats()
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.PlayerWins)
	assert.Equal(t, 2, s.BankerWins)
	assert.InDelta(t, 50.0, s.PlayerRate, 1e-9)
	assert.InDelta(t, 50.0, s.BankerRate, 1e-9)
}

func TestClear_Persists(t *testing.T) {
	l, store := newTestLedger(t)
	ctx := context.Background()

	_, _ = l.Record(ctx, playerMsg(10))
	require.NoError(t, l.Clear(ctx))

	assert.Zero(t, l.Len())
	stored, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)

	// Cleared numbers may be recorded again
	out, err := l.Record(ctx, playerMsg(11))
	require.NoError(t, err)
	assert.True(t, out.Accepted)
}

type failingStore struct {
	*memory.ResultStore
	fail bool
}

func (s *failingStore) Save(ctx context.Context, results []*domain.Result) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.ResultStore.Save(ctx, results)
}

func TestRecord_PersistFailureKeepsMemoryState(t *testing.T) {
	store := &failingStore{ResultStore: memory.NewResultStore(), fail: true}
	l := New(Options{Store: store})
	ctx := context.Background()

	out, err := l.Record(ctx, playerMsg(10))
	assert.Error(t, err)
	assert.True(t, out.Accepted)
	assert.Equal(t, 1, l.Len())

	// The next successful write reconciles the snapshot
	store.fail = false
	_, err = l.Record(ctx, playerMsg(20))
	require.NoError(t, err)

	stored, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestLoad_RestoresSnapshot(t *testing.T) {
	store := memory.NewResultStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, []*domain.Result{
		{GameNumber: 9, Winner: domain.WinnerBanker, RecordedAt: fixedNow},
	}))

	l := New(Options{Store: store})
	require.NoError(t, l.Load(ctx))
	assert.Equal(t, 1, l.Len())

	out, err := l.Record(ctx, playerMsg(10))
	require.NoError(t, err)
	assert.Equal(t, extractor.ReasonConsecutive, out.Reason)
}

func TestImportRows(t *testing.T) {
	l, store := newTestLedger(t)
	ctx := context.Background()

	stats, err := l.ImportRows(ctx, []domain.Row{
		{At: fixedNow, Number: 56, WinnerText: "Joueur"},
		{At: fixedNow, Number: 57, WinnerText: "Banquier"},
		{Number: 59, WinnerText: "banker"},
		{Number: 59, WinnerText: "Joueur"},
		{Number: 70, WinnerText: "?"},
		{Number: 0, WinnerText: "Joueur"},
	})
	require.NoError(t, err)

	assert.Equal(t, ImportStats{Imported: 2, SkippedDuplicate: 1, SkippedConsecutive: 1, SkippedInvalid: 2}, stats)
	assert.Equal(t, 1, store.Saves())

	results := l.Results()
	require.Len(t, results, 2)
	assert.Equal(t, domain.WinnerBanker, results[1].Winner)
	assert.True(t, results[1].RecordedAt.Equal(fixedNow), "zero row time falls back to the clock")
}

func TestExport_RoundTrip(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, _ = l.Record(ctx, "#N60. ✅4(A♠️2♥️9♦️) - 7(3♣️4♣️) 12/05/2024 14:30")
	_, _ = l.Record(ctx, "#N7. 4(3♣️4♣️) - ✅7(A♠️2♥️9♦️) 12/05/2024 14:35")

	var buf bytes.Buffer
	require.NoError(t, l.Export(&buf))

	rows, err := spreadsheet.ReadXLSX(&buf, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 60, rows[0].Number)
	assert.Equal(t, "Joueur", rows[0].WinnerText)
	assert.Equal(t, 7, rows[1].Number)
	assert.Equal(t, "Banquier", rows[1].WinnerText)
	assert.Equal(t, "12/05/2024 - 14:35", spreadsheet.FormatDateTime(rows[1].At))
}

func TestExport_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+1", 3600)
	l := New(Options{
		Store:     memory.NewResultStore(),
		Extractor: extractor.New(extractor.Options{Now: func() time.Time { return fixedNow }, Location: loc}),
		Location:  loc,
		Now:       func() time.Time { return fixedNow },
	})
	ctx := context.Background()

	out, err := l.Record(ctx, "#N60. ✅4(A♠️2♥️9♦️) - 7(3♣️4♣️) 12/05/2024 23:30")
	require.NoError(t, err)
	require.True(t, out.Accepted)

	var buf bytes.Buffer
	require.NoError(t, l.Export(&buf))

	rows, err := spreadsheet.ReadXLSX(&buf, loc)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].At.Equal(out.Result.RecordedAt), "read %v, recorded %v", rows[0].At, out.Result.RecordedAt)
}
