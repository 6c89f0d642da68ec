package interfaces

import (
	"context"
	"time"

	"alphatalk/internal/models"
)

// StorageManager provides access to the individual stores and owns the
// lifecycle of the underlying database.
type StorageManager interface {
	AnalysisStore() AnalysisStore
	WatchlistStore() WatchlistStore
	TickerStore() TickerStore
	Close() error
}

// AnalysisStore persists completed analysis records, one per ticker.
type AnalysisStore interface {
	// Get returns the record for ticker if one exists and its timestamp
	// is within maxAge of now. Returns nil when absent or stale.
	Get(ctx context.Context, ticker string, maxAge time.Duration) (*models.AnalysisRecord, error)

	// Latest returns the record for ticker regardless of age, or nil
	// when none exists.
	Latest(ctx context.Context, ticker string) (*models.AnalysisRecord, error)

	// Put upserts the whole record keyed by its ticker.
	Put(ctx context.Context, record *models.AnalysisRecord) error

	// PurgeOlderThan deletes records older than the given number of
	// days and returns how many were removed.
	PurgeOlderThan(ctx context.Context, days int) (int, error)
}

// WatchlistStore persists per-user watchlists.
type WatchlistStore interface {
	Get(ctx context.Context, userID string) (*models.UserWatchlist, error)
	Put(ctx context.Context, list *models.UserWatchlist) error
	Delete(ctx context.Context, userID string) error
	List(ctx context.Context) ([]*models.UserWatchlist, error)
}

// TickerStore persists the global set of tickers known to the system.
type TickerStore interface {
	// Add registers a ticker. Returns false when it was already present.
	Add(ctx context.Context, ticker string) (bool, error)
	Remove(ctx context.Context, ticker string) error
	List(ctx context.Context) ([]string, error)
}
