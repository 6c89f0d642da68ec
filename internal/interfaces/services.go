package interfaces

import (
	"context"

	"alphatalk/internal/models"
)

// FusionEngine merges fundamental metrics from multiple sources into a
// single scored result.
type FusionEngine interface {
	Fuse(ctx context.Context, ticker string) (*models.FusionResult, error)
}

// AnalysisService runs the full analysis pipeline for a ticker and
// persists the resulting record.
type AnalysisService interface {
	Analyze(ctx context.Context, ticker string) (*models.AnalysisRecord, error)
}

// RefreshCoordinator decides when analyses run and guarantees at most
// one in-flight run per ticker.
type RefreshCoordinator interface {
	// Status implements the read path: return the cached record when
	// fresh, otherwise schedule a background refresh and report the
	// current state.
	Status(ctx context.Context, ticker string) (*models.AnalysisStatus, error)

	// Request forces a refresh attempt for ticker. Returns the state
	// after admission: in_flight when a run was started or already
	// running, fresh when a recent record made the run unnecessary.
	Request(ctx context.Context, ticker string) (models.RefreshState, error)

	// Sweep refreshes every watched ticker whose record is stale,
	// staggering launches. Blocks until all launched runs finish or
	// ctx expires.
	Sweep(ctx context.Context) error

	// InFlight reports whether a run for ticker is currently executing.
	InFlight(ticker string) bool
}

// WatchService manages user watchlists and the global ticker set.
type WatchService interface {
	AddTicker(ctx context.Context, userID, ticker string) error
	RemoveTicker(ctx context.Context, userID, ticker string) error
	GetTickers(ctx context.Context, userID string) ([]string, error)

	AddGlobalTicker(ctx context.Context, ticker string) error
	RemoveGlobalTicker(ctx context.Context, ticker string) error

	// WatchedTickers returns the union of the global set and every
	// user's watchlist, deduplicated and sorted.
	WatchedTickers(ctx context.Context) ([]string, error)

	// UsersWatching returns the IDs of users whose watchlist contains
	// the ticker.
	UsersWatching(ctx context.Context, ticker string) ([]string, error)
}

// NewsService assembles the news research section for a ticker.
type NewsService interface {
	Research(ctx context.Context, ticker string) (string, error)
}
