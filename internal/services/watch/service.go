// Package watch manages user watchlists and the global ticker set.
package watch

import (
	"context"
	"fmt"
	"sort"

	"alphatalk/internal/common"
	"alphatalk/internal/interfaces"
	"alphatalk/internal/models"
)

// Service implements interfaces.WatchService.
type Service struct {
	watchlists interfaces.WatchlistStore
	tickers    interfaces.TickerStore
	logger     *common.Logger
}

// NewService creates a watch service over the two stores.
func NewService(watchlists interfaces.WatchlistStore, tickers interfaces.TickerStore, logger *common.Logger) *Service {
	return &Service{
		watchlists: watchlists,
		tickers:    tickers,
		logger:     logger,
	}
}

var _ interfaces.WatchService = (*Service)(nil)

// AddTicker implements interfaces.WatchService. Adding to a watchlist
// also registers the ticker globally so the sweep picks it up.
func (s *Service) AddTicker(ctx context.Context, userID, ticker string) error {
	ticker = models.NormalizeTicker(ticker)
	if ticker == "" {
		return fmt.Errorf("empty ticker")
	}

	list, err := s.watchlists.Get(ctx, userID)
	if err != nil {
		return err
	}
	if list == nil {
		list = &models.UserWatchlist{UserID: userID}
	}
	if list.Contains(ticker) {
		return nil
	}

	list.Tickers = append(list.Tickers, ticker)
	if err := s.watchlists.Put(ctx, list); err != nil {
		return err
	}

	if _, err := s.tickers.Add(ctx, ticker); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", userID).Str("ticker", ticker).Msg("Ticker added to watchlist")
	return nil
}

// RemoveTicker implements interfaces.WatchService. The global entry is
// left in place; other users may still watch the ticker and cleanup is
// an explicit admin operation.
func (s *Service) RemoveTicker(ctx context.Context, userID, ticker string) error {
	ticker = models.NormalizeTicker(ticker)

	list, err := s.watchlists.Get(ctx, userID)
	if err != nil {
		return err
	}
	if list == nil || !list.Contains(ticker) {
		return nil
	}

	kept := list.Tickers[:0]
	for _, t := range list.Tickers {
		if t != ticker {
			kept = append(kept, t)
		}
	}
	list.Tickers = kept

	return s.watchlists.Put(ctx, list)
}

// GetTickers implements interfaces.WatchService.
func (s *Service) GetTickers(ctx context.Context, userID string) ([]string, error) {
	list, err := s.watchlists.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return []string{}, nil
	}
	return list.Tickers, nil
}

// AddGlobalTicker implements interfaces.WatchService.
func (s *Service) AddGlobalTicker(ctx context.Context, ticker string) error {
	ticker = models.NormalizeTicker(ticker)
	if ticker == "" {
		return fmt.Errorf("empty ticker")
	}
	_, err := s.tickers.Add(ctx, ticker)
	return err
}

// RemoveGlobalTicker implements interfaces.WatchService.
func (s *Service) RemoveGlobalTicker(ctx context.Context, ticker string) error {
	return s.tickers.Remove(ctx, models.NormalizeTicker(ticker))
}

// WatchedTickers implements interfaces.WatchService.
func (s *Service) WatchedTickers(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)

	global, err := s.tickers.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range global {
		seen[t] = true
	}

	lists, err := s.watchlists.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, list := range lists {
		for _, t := range list.Tickers {
			seen[models.NormalizeTicker(t)] = true
		}
	}

	union := make([]string, 0, len(seen))
	for t := range seen {
		union = append(union, t)
	}
	sort.Strings(union)
	return union, nil
}

// UsersWatching implements interfaces.WatchService.
func (s *Service) UsersWatching(ctx context.Context, ticker string) ([]string, error) {
	ticker = models.NormalizeTicker(ticker)

	lists, err := s.watchlists.List(ctx)
	if err != nil {
		return nil, err
	}

	var users []string
	for _, list := range lists {
		if list.Contains(ticker) {
			users = append(users, list.UserID)
		}
	}
	sort.Strings(users)
	return users, nil
}
