package models

import "time"

// UserWatchlist holds the tickers one user is watching.
// Tickers are stored upper-cased and deduplicated; order is not meaningful.
type UserWatchlist struct {
	UserID    string    `json:"user_id" badgerhold:"key"`
	Tickers   []string  `json:"tickers"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contains reports whether the watchlist already holds ticker (normalized).
func (w *UserWatchlist) Contains(ticker string) bool {
	t := NormalizeTicker(ticker)
	for _, existing := range w.Tickers {
		if existing == t {
			return true
		}
	}
	return false
}

// GlobalTicker is an ownerless registry entry. The watched set swept by
// the coordinator is the union of all user watchlists and this list.
type GlobalTicker struct {
	Ticker  string    `json:"ticker" badgerhold:"key"`
	AddedAt time.Time `json:"added_at"`
}
