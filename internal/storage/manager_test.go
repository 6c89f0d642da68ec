package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timshannon/badgerhold/v4"

	"alphatalk/internal/common"
	"alphatalk/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	opts := badgerhold.DefaultOptions
	opts.Dir = t.TempDir()
	opts.ValueDir = opts.Dir
	opts.Logger = nil

	store, err := badgerhold.Open(opts)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := common.NewLogger("error")
	db := &BadgerDB{store: store, logger: logger}

	return &Manager{
		db:        db,
		analysis:  newAnalysisStore(db, logger),
		watchlist: newWatchlistStore(db, logger),
		ticker:    newTickerStore(db, logger),
		logger:    logger,
	}
}

func TestAnalysisStorePutNormalizesTicker(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	record := &models.AnalysisRecord{
		Ticker:    " aapl ",
		FinalText: "hold",
	}
	require.NoError(t, m.AnalysisStore().Put(ctx, record))

	got, err := m.AnalysisStore().Latest(ctx, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "AAPL", got.Ticker)
	assert.Equal(t, "hold", got.FinalText)
	assert.False(t, got.Timestamp.IsZero())
}

func TestAnalysisStoreUpsertReplacesWholeRecord(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first := &models.AnalysisRecord{
		Ticker:    "005930",
		QuantText: "old quant",
		NewsText:  "old news",
	}
	require.NoError(t, m.AnalysisStore().Put(ctx, first))

	second := &models.AnalysisRecord{
		Ticker:    "005930",
		QuantText: "new quant",
	}
	require.NoError(t, m.AnalysisStore().Put(ctx, second))

	got, err := m.AnalysisStore().Latest(ctx, "005930")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "new quant", got.QuantText)
	assert.Empty(t, got.NewsText, "upsert replaces, never merges")
}

func TestAnalysisStoreGetRespectsMaxAge(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	record := &models.AnalysisRecord{
		Ticker:    "MSFT",
		Timestamp: time.Now().UTC().Add(-2 * time.Hour),
		FinalText: "buy",
	}
	require.NoError(t, m.AnalysisStore().Put(ctx, record))

	fresh, err := m.AnalysisStore().Get(ctx, "MSFT", 3*time.Hour)
	require.NoError(t, err)
	assert.NotNil(t, fresh)

	stale, err := m.AnalysisStore().Get(ctx, "MSFT", time.Hour)
	require.NoError(t, err)
	assert.Nil(t, stale)
}

func TestAnalysisStoreGetMissing(t *testing.T) {
	m := newTestManager(t)

	got, err := m.AnalysisStore().Get(context.Background(), "UNKNOWN", time.Hour)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAnalysisStorePurgeOlderThan(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	old := &models.AnalysisRecord{
		Ticker:    "OLD1",
		Timestamp: time.Now().UTC().AddDate(0, 0, -10),
	}
	recent := &models.AnalysisRecord{
		Ticker:    "NEW1",
		Timestamp: time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, m.AnalysisStore().Put(ctx, old))
	require.NoError(t, m.AnalysisStore().Put(ctx, recent))

	purged, err := m.AnalysisStore().PurgeOlderThan(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	gone, err := m.AnalysisStore().Latest(ctx, "OLD1")
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := m.AnalysisStore().Latest(ctx, "NEW1")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestWatchlistStoreRoundTrip(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	missing, err := m.WatchlistStore().Get(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, missing)

	list := &models.UserWatchlist{
		UserID:  "alice",
		Tickers: []string{"AAPL", "005930"},
	}
	require.NoError(t, m.WatchlistStore().Put(ctx, list))

	got, err := m.WatchlistStore().Get(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"AAPL", "005930"}, got.Tickers)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())

	all, err := m.WatchlistStore().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, m.WatchlistStore().Delete(ctx, "alice"))
	gone, err := m.WatchlistStore().Get(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestWatchlistStoreDeleteMissingIsNoop(t *testing.T) {
	m := newTestManager(t)
	assert.NoError(t, m.WatchlistStore().Delete(context.Background(), "nobody"))
}

func TestTickerStoreAddDeduplicates(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	added, err := m.TickerStore().Add(ctx, "tsla")
	require.NoError(t, err)
	assert.True(t, added)

	again, err := m.TickerStore().Add(ctx, "TSLA")
	require.NoError(t, err)
	assert.False(t, again, "normalized duplicate must not insert")

	tickers, err := m.TickerStore().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"TSLA"}, tickers)
}

func TestTickerStoreRemove(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.TickerStore().Add(ctx, "AAPL")
	require.NoError(t, err)
	_, err = m.TickerStore().Add(ctx, "005930")
	require.NoError(t, err)

	require.NoError(t, m.TickerStore().Remove(ctx, "AAPL"))
	require.NoError(t, m.TickerStore().Remove(ctx, "GHOST"))

	tickers, err := m.TickerStore().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"005930"}, tickers)
}
