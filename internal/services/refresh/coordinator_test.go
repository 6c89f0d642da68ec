package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alphatalk/internal/common"
	"alphatalk/internal/models"
)

// mockAnalyzer counts pipeline executions and can block to hold a run
// in flight.
type mockAnalyzer struct {
	calls   atomic.Int64
	puts    atomic.Int64
	block   chan struct{} // when set, runs wait here
	failErr error
	record  func(ticker string) *models.AnalysisRecord
	store   *mockAnalysisStore
}

func (m *mockAnalyzer) Analyze(ctx context.Context, ticker string) (*models.AnalysisRecord, error) {
	m.calls.Add(1)
	if m.block != nil {
		<-m.block
	}
	if m.failErr != nil {
		return nil, m.failErr
	}

	record := &models.AnalysisRecord{
		Ticker:    models.NormalizeTicker(ticker),
		Timestamp: time.Now().UTC(),
		FinalText: "HOLD",
	}
	if m.record != nil {
		record = m.record(ticker)
	}
	if m.store != nil {
		m.puts.Add(1)
		m.store.put(record)
	}
	return record, nil
}

// mockAnalysisStore is a map-backed AnalysisStore.
type mockAnalysisStore struct {
	mu      sync.Mutex
	records map[string]*models.AnalysisRecord
}

func newMockAnalysisStore() *mockAnalysisStore {
	return &mockAnalysisStore{records: make(map[string]*models.AnalysisRecord)}
}

func (m *mockAnalysisStore) put(record *models.AnalysisRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.Ticker] = record
}

func (m *mockAnalysisStore) Get(ctx context.Context, ticker string, maxAge time.Duration) (*models.AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record := m.records[models.NormalizeTicker(ticker)]
	if record == nil || !common.IsFresh(record.Timestamp, maxAge) {
		return nil, nil
	}
	return record, nil
}

func (m *mockAnalysisStore) Latest(ctx context.Context, ticker string) (*models.AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[models.NormalizeTicker(ticker)], nil
}

func (m *mockAnalysisStore) Put(ctx context.Context, record *models.AnalysisRecord) error {
	m.put(record)
	return nil
}

func (m *mockAnalysisStore) PurgeOlderThan(ctx context.Context, days int) (int, error) {
	return 0, nil
}

// mockWatch serves a fixed ticker union.
type mockWatch struct {
	tickers []string
}

func (m *mockWatch) AddTicker(ctx context.Context, userID, ticker string) error    { return nil }
func (m *mockWatch) RemoveTicker(ctx context.Context, userID, ticker string) error { return nil }
func (m *mockWatch) GetTickers(ctx context.Context, userID string) ([]string, error) {
	return nil, nil
}
func (m *mockWatch) AddGlobalTicker(ctx context.Context, ticker string) error    { return nil }
func (m *mockWatch) RemoveGlobalTicker(ctx context.Context, ticker string) error { return nil }
func (m *mockWatch) WatchedTickers(ctx context.Context) ([]string, error) {
	return m.tickers, nil
}
func (m *mockWatch) UsersWatching(ctx context.Context, ticker string) ([]string, error) {
	return nil, nil
}

func testConfig() *common.RefreshConfig {
	return &common.RefreshConfig{
		MaxAgeHours:  1,
		StaggerDelay: "1ms",
		SweepTimeout: "5s",
	}
}

func newTestCoordinator(analyzer *mockAnalyzer, store *mockAnalysisStore, watch *mockWatch) *Coordinator {
	logger := common.NewSilentLogger()
	hub := NewEventHub(logger)
	go hub.Run()
	return NewCoordinator(analyzer, store, watch, hub, testConfig(), logger)
}

func TestStatusFreshRecord(t *testing.T) {
	store := newMockAnalysisStore()
	store.put(&models.AnalysisRecord{
		Ticker:    "AAPL",
		Timestamp: time.Now().UTC(),
		FinalText: "BUY",
	})
	analyzer := &mockAnalyzer{store: store}
	c := newTestCoordinator(analyzer, store, &mockWatch{})

	status, err := c.Status(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, models.RefreshStateFresh, status.State)
	require.NotNil(t, status.Record)
	assert.Equal(t, "BUY", status.Record.FinalText)
	assert.Equal(t, int64(0), analyzer.calls.Load(), "fresh hit never runs the pipeline")
}

func TestStatusErrorRecordIsServedNotRetried(t *testing.T) {
	store := newMockAnalysisStore()
	store.put(&models.AnalysisRecord{
		Ticker:    "GHOST",
		Timestamp: time.Now().UTC(),
		Error:     "insufficient fundamental data",
	})
	analyzer := &mockAnalyzer{store: store}
	c := newTestCoordinator(analyzer, store, &mockWatch{})

	status, err := c.Status(context.Background(), "GHOST")
	require.NoError(t, err)
	assert.Equal(t, models.RefreshStateError, status.State)
	assert.Equal(t, int64(0), analyzer.calls.Load(), "error records are terminal until they age out")
}

func TestStatusStaleSchedulesRefresh(t *testing.T) {
	store := newMockAnalysisStore()
	store.put(&models.AnalysisRecord{
		Ticker:    "MSFT",
		Timestamp: time.Now().UTC().Add(-2 * time.Hour),
	})
	analyzer := &mockAnalyzer{store: store}
	c := newTestCoordinator(analyzer, store, &mockWatch{})

	status, err := c.Status(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, models.RefreshStatePending, status.State)
	assert.Nil(t, status.Record)

	c.Wait()
	assert.Equal(t, int64(1), analyzer.calls.Load())

	// The completed run leaves a fresh record behind.
	status, err = c.Status(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, models.RefreshStateFresh, status.State)
}

func TestRequestSingleFlight(t *testing.T) {
	store := newMockAnalysisStore()
	analyzer := &mockAnalyzer{store: store, block: make(chan struct{})}
	c := newTestCoordinator(analyzer, store, &mockWatch{})

	first, err := c.Request(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, models.RefreshStatePending, first)

	// Give the run a moment to enter the analyzer.
	assert.Eventually(t, func() bool { return analyzer.calls.Load() == 1 },
		time.Second, time.Millisecond)

	second, err := c.Request(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, models.RefreshStateInFlight, second)
	assert.True(t, c.InFlight("AAPL"))

	close(analyzer.block)
	c.Wait()

	assert.Equal(t, int64(1), analyzer.calls.Load(), "two admissions collapse to one execution")
	assert.Equal(t, int64(1), analyzer.puts.Load(), "exactly one record write")
	assert.False(t, c.InFlight("AAPL"))
}

func TestRequestConcurrentBurst(t *testing.T) {
	store := newMockAnalysisStore()
	analyzer := &mockAnalyzer{store: store, block: make(chan struct{})}
	c := newTestCoordinator(analyzer, store, &mockWatch{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Request(context.Background(), "005930")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	close(analyzer.block)
	c.Wait()
	assert.Equal(t, int64(1), analyzer.calls.Load())
}

func TestRequestFreshRecordShortCircuits(t *testing.T) {
	store := newMockAnalysisStore()
	store.put(&models.AnalysisRecord{Ticker: "AAPL", Timestamp: time.Now().UTC()})
	analyzer := &mockAnalyzer{store: store}
	c := newTestCoordinator(analyzer, store, &mockWatch{})

	state, err := c.Request(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, models.RefreshStateFresh, state)
	assert.Equal(t, int64(0), analyzer.calls.Load())
}

func TestRequestAdmitsAgainAfterCompletion(t *testing.T) {
	store := newMockAnalysisStore()
	// Runs write error records, which Get still serves as fresh; use a
	// failing analyzer so nothing is written and re-admission is
	// observable.
	analyzer := &mockAnalyzer{failErr: errors.New("boom")}
	c := newTestCoordinator(analyzer, store, &mockWatch{})

	_, err := c.Request(context.Background(), "AAPL")
	require.NoError(t, err)
	c.Wait()

	state, err := c.Request(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, models.RefreshStatePending, state, "slot is released after the run ends")
	c.Wait()
	assert.Equal(t, int64(2), analyzer.calls.Load())
}

func TestSweepRefreshesOnlyStaleTickers(t *testing.T) {
	store := newMockAnalysisStore()
	store.put(&models.AnalysisRecord{Ticker: "FRESH1", Timestamp: time.Now().UTC()})
	store.put(&models.AnalysisRecord{Ticker: "STALE1", Timestamp: time.Now().UTC().Add(-3 * time.Hour)})

	analyzer := &mockAnalyzer{store: store}
	watch := &mockWatch{tickers: []string{"FRESH1", "STALE1", "NEW1"}}
	c := newTestCoordinator(analyzer, store, watch)

	require.NoError(t, c.Sweep(context.Background()))
	c.Wait()

	assert.Equal(t, int64(2), analyzer.calls.Load(), "fresh tickers are skipped")

	got, _ := store.Latest(context.Background(), "NEW1")
	assert.NotNil(t, got)
}

func TestSweepTimeoutAbandonsOutstandingRuns(t *testing.T) {
	store := newMockAnalysisStore()
	analyzer := &mockAnalyzer{store: store, block: make(chan struct{})}
	watch := &mockWatch{tickers: []string{"AAPL"}}
	c := newTestCoordinator(analyzer, store, watch)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.Sweep(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The abandoned run is still executing and still holds its slot.
	assert.True(t, c.InFlight("AAPL"))

	close(analyzer.block)
	c.Wait()
	assert.False(t, c.InFlight("AAPL"))
}

func TestSweepSkipsInFlightTickers(t *testing.T) {
	store := newMockAnalysisStore()
	analyzer := &mockAnalyzer{store: store, block: make(chan struct{})}
	watch := &mockWatch{tickers: []string{"AAPL"}}
	c := newTestCoordinator(analyzer, store, watch)

	_, err := c.Request(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return analyzer.calls.Load() == 1 },
		time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = c.Sweep(ctx)

	close(analyzer.block)
	c.Wait()
	assert.Equal(t, int64(1), analyzer.calls.Load(), "sweep must not double-admit")
}
