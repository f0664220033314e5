package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baccarat-ledger/internal/domain"
	"baccarat-ledger/internal/storage"
)

func TestResultStore_SaveAndLoad(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewResultStore(pool)
	ctx := context.Background()

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	at := time.Date(2024, 5, 12, 14, 30, 0, 0, time.UTC)
	results := []*domain.Result{
		{GameNumber: 60, Winner: domain.WinnerPlayer, RecordedAt: at, FirstGroup: "A♠️2♥️9♦️", RawExcerpt: "#N60."},
		{GameNumber: 12, Winner: domain.WinnerBanker, RecordedAt: at.Add(time.Minute)},
	}
	require.NoError(t, store.Save(ctx, results))

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, 60, loaded[0].GameNumber, "insertion order must be kept")
	assert.Equal(t, domain.WinnerPlayer, loaded[0].Winner)
	assert.True(t, loaded[0].RecordedAt.Equal(at))
	assert.Equal(t, "A♠️2♥️9♦️", loaded[0].FirstGroup)
	assert.Equal(t, 12, loaded[1].GameNumber)

	// Save replaces the snapshot
	require.NoError(t, store.Save(ctx, results[1:]))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 12, loaded[0].GameNumber)
}

func TestResultStore_SaveDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewResultStore(pool)
	err := store.Save(context.Background(), []*domain.Result{
		{GameNumber: 5, Winner: domain.WinnerPlayer, RecordedAt: time.Now()},
		{GameNumber: 5, Winner: domain.WinnerBanker, RecordedAt: time.Now()},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestPredictionStore_SaveAndLoad(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPredictionStore(pool)
	ctx := context.Background()

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Predictions)
	assert.Nil(t, empty.LastLaunchedNumber)

	imported := time.Date(2024, 5, 12, 1, 0, 0, 0, time.UTC)
	launched := imported.Add(time.Hour)
	last := 881
	snap := &domain.CatalogSnapshot{
		LastLaunchedNumber: &last,
		Predictions: map[string]*domain.Prediction{
			"881": {
				Key: "881", PredictedNumber: 881, ExpectedWinner: domain.WinnerBanker,
				State: domain.PredictionLaunched, Display: domain.DisplayRef{ChatID: -100123, MessageID: 77},
				ImportedAt: imported, ImportBatch: "batch", LaunchedAt: launched,
			},
			"900": {
				Key: "900", PredictedNumber: 900, ExpectedWinner: domain.WinnerPlayer,
				State: domain.PredictionPending, ImportedAt: imported,
			},
		},
	}
	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded.LastLaunchedNumber)
	assert.Equal(t, 881, *loaded.LastLaunchedNumber)
	require.Len(t, loaded.Predictions, 2)

	p := loaded.Predictions["881"]
	assert.Equal(t, domain.PredictionLaunched, p.State)
	assert.Equal(t, domain.DisplayRef{ChatID: -100123, MessageID: 77}, p.Display)
	assert.True(t, p.LaunchedAt.Equal(launched))
	assert.True(t, p.VerifiedAt.IsZero())
	assert.True(t, loaded.Predictions["900"].ScheduledAt.IsZero())

	// Replace with an empty catalog keeps the meta row
	require.NoError(t, store.Save(ctx, &domain.CatalogSnapshot{LastLaunchedNumber: &last}))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Predictions)
	assert.Equal(t, 881, *loaded.LastLaunchedNumber)
}

func TestResultArchive_InsertBulkAndDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	archive := NewResultArchive(pool)
	ctx := context.Background()

	day := time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC)
	results := []*domain.Result{
		{GameNumber: 20, Winner: domain.WinnerBanker, RecordedAt: day.Add(2 * time.Hour)},
		{GameNumber: 3, Winner: domain.WinnerPlayer, RecordedAt: day.Add(1 * time.Hour)},
	}
	require.NoError(t, archive.InsertBulk(ctx, "day-1", results))

	err := archive.InsertBulk(ctx, "day-1", results)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := archive.GetByTimeRange(ctx, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].GameNumber)
	assert.Equal(t, 20, got[1].GameNumber)
}
