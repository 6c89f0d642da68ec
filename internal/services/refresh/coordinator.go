// Package refresh decides when analyses run. It owns the per-ticker
// admission table that guarantees at most one in-flight pipeline per
// ticker, the periodic sweep over watched tickers, and the WebSocket
// hub that announces run lifecycle events.
package refresh

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"alphatalk/internal/common"
	"alphatalk/internal/interfaces"
	"alphatalk/internal/models"
)

const (
	EventRefreshStarted   = "refresh_started"
	EventRefreshCompleted = "refresh_completed"
	EventRefreshFailed    = "refresh_failed"
)

// Coordinator implements interfaces.RefreshCoordinator.
type Coordinator struct {
	analyzer interfaces.AnalysisService
	store    interfaces.AnalysisStore
	watch    interfaces.WatchService
	hub      *EventHub
	logger   *common.Logger

	maxAge       time.Duration
	staggerDelay time.Duration

	mu       sync.Mutex
	inFlight map[string]bool

	wg sync.WaitGroup
}

// NewCoordinator creates a refresh coordinator.
func NewCoordinator(
	analyzer interfaces.AnalysisService,
	store interfaces.AnalysisStore,
	watch interfaces.WatchService,
	hub *EventHub,
	config *common.RefreshConfig,
	logger *common.Logger,
) *Coordinator {
	return &Coordinator{
		analyzer:     analyzer,
		store:        store,
		watch:        watch,
		hub:          hub,
		logger:       logger,
		maxAge:       config.GetMaxAge(),
		staggerDelay: config.GetStaggerDelay(),
		inFlight:     make(map[string]bool),
	}
}

var _ interfaces.RefreshCoordinator = (*Coordinator)(nil)

// Status implements interfaces.RefreshCoordinator. A fresh record is
// returned as-is, error records included: a recent failed cycle is an
// answer, not a trigger. Anything else schedules a background run.
func (c *Coordinator) Status(ctx context.Context, ticker string) (*models.AnalysisStatus, error) {
	ticker = models.NormalizeTicker(ticker)

	record, err := c.store.Get(ctx, ticker, c.maxAge)
	if err != nil {
		return nil, err
	}
	if record != nil {
		state := models.RefreshStateFresh
		if record.HasError() {
			state = models.RefreshStateError
		}
		return &models.AnalysisStatus{Ticker: ticker, State: state, Record: record}, nil
	}

	state, err := c.Request(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if state == models.RefreshStateInFlight {
		return &models.AnalysisStatus{Ticker: ticker, State: models.RefreshStateInFlight}, nil
	}
	return &models.AnalysisStatus{Ticker: ticker, State: models.RefreshStatePending}, nil
}

// Request implements interfaces.RefreshCoordinator. Admission is a
// synchronous check-and-set, so concurrent requests for the same
// ticker collapse to a single pipeline execution.
func (c *Coordinator) Request(ctx context.Context, ticker string) (models.RefreshState, error) {
	ticker = models.NormalizeTicker(ticker)

	// A record written by a concurrent run inside the freshness window
	// makes this request a no-op.
	record, err := c.store.Get(ctx, ticker, c.maxAge)
	if err != nil {
		return "", err
	}
	if record != nil {
		return models.RefreshStateFresh, nil
	}

	if !c.admit(ticker) {
		return models.RefreshStateInFlight, nil
	}

	c.safeGo("pipeline-"+ticker, func() {
		defer c.release(ticker)
		c.run(ticker)
	})

	return models.RefreshStatePending, nil
}

// Sweep implements interfaces.RefreshCoordinator. Launches are
// staggered by a fixed delay rather than bounded by a worker pool; the
// slow part downstream is rate-limited providers, not CPU. The ctx
// deadline bounds the total wait only: runs still executing when it
// expires are abandoned, not cancelled.
func (c *Coordinator) Sweep(ctx context.Context) error {
	tickers, err := c.watch.WatchedTickers(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate watched tickers: %w", err)
	}

	var swept sync.WaitGroup
	launched := 0

	for _, ticker := range tickers {
		record, err := c.store.Get(ctx, ticker, c.maxAge)
		if err != nil {
			c.logger.Warn().Str("ticker", ticker).Err(err).Msg("Freshness check failed, skipping")
			continue
		}
		if record != nil {
			continue
		}
		if !c.admit(ticker) {
			continue
		}

		if launched > 0 {
			select {
			case <-time.After(c.staggerDelay):
			case <-ctx.Done():
				c.release(ticker)
				return ctx.Err()
			}
		}
		launched++

		t := ticker
		swept.Add(1)
		c.safeGo("sweep-"+t, func() {
			defer swept.Done()
			defer c.release(t)
			c.run(t)
		})
	}

	c.logger.Info().Int("watched", len(tickers)).Int("launched", launched).Msg("Sweep launched")

	done := make(chan struct{})
	go func() {
		swept.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		c.logger.Warn().Int("launched", launched).Msg("Sweep timeout reached, abandoning outstanding runs")
		return ctx.Err()
	}
}

// InFlight implements interfaces.RefreshCoordinator.
func (c *Coordinator) InFlight(ticker string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight[models.NormalizeTicker(ticker)]
}

// Wait blocks until every launched run has finished. Test hook and
// shutdown aid.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// admit marks ticker in-flight. Returns false when a run already holds
// the slot.
func (c *Coordinator) admit(ticker string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[ticker] {
		return false
	}
	c.inFlight[ticker] = true
	return true
}

func (c *Coordinator) release(ticker string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, ticker)
}

// run executes one pipeline. It deliberately uses a background context
// rather than the caller's: the caller has already been answered, and
// a sweep timeout abandons rather than cancels.
func (c *Coordinator) run(ticker string) {
	runID := uuid.New().String()

	c.hub.Broadcast(models.RefreshEvent{
		Type:      EventRefreshStarted,
		Ticker:    ticker,
		RunID:     runID,
		Timestamp: time.Now().UTC(),
	})

	record, err := c.analyzer.Analyze(context.Background(), ticker)
	switch {
	case err != nil:
		c.logger.Error().Str("ticker", ticker).Str("run_id", runID).Err(err).Msg("Refresh run failed")
		c.hub.Broadcast(models.RefreshEvent{
			Type:      EventRefreshFailed,
			Ticker:    ticker,
			RunID:     runID,
			Error:     err.Error(),
			Timestamp: time.Now().UTC(),
		})
	case record.HasError():
		c.hub.Broadcast(models.RefreshEvent{
			Type:      EventRefreshFailed,
			Ticker:    ticker,
			RunID:     runID,
			Error:     record.Error,
			Timestamp: time.Now().UTC(),
		})
	default:
		c.hub.Broadcast(models.RefreshEvent{
			Type:      EventRefreshCompleted,
			Ticker:    ticker,
			RunID:     runID,
			Timestamp: time.Now().UTC(),
		})
	}
}

// safeGo launches a goroutine with panic recovery and logging.
func (c *Coordinator) safeGo(name string, fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error().
					Str("goroutine", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic in refresh goroutine")
			}
		}()
		fn()
	}()
}
