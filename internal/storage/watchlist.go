package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"alphatalk/internal/common"
	"alphatalk/internal/interfaces"
	"alphatalk/internal/models"
)

// watchlistStore implements interfaces.WatchlistStore using BadgerDB.
type watchlistStore struct {
	db     *BadgerDB
	logger *common.Logger
}

func newWatchlistStore(db *BadgerDB, logger *common.Logger) *watchlistStore {
	return &watchlistStore{db: db, logger: logger}
}

var _ interfaces.WatchlistStore = (*watchlistStore)(nil)

func (s *watchlistStore) Get(ctx context.Context, userID string) (*models.UserWatchlist, error) {
	var list models.UserWatchlist
	err := s.db.store.Get(userID, &list)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get watchlist for %s: %w", userID, err)
	}
	return &list, nil
}

func (s *watchlistStore) Put(ctx context.Context, list *models.UserWatchlist) error {
	now := time.Now().UTC()
	list.UpdatedAt = now
	if list.CreatedAt.IsZero() {
		list.CreatedAt = now
	}

	if err := s.db.store.Upsert(list.UserID, list); err != nil {
		return fmt.Errorf("failed to save watchlist for %s: %w", list.UserID, err)
	}
	s.logger.Debug().Str("user_id", list.UserID).Int("tickers", len(list.Tickers)).Msg("Watchlist saved")
	return nil
}

func (s *watchlistStore) Delete(ctx context.Context, userID string) error {
	err := s.db.store.Delete(userID, &models.UserWatchlist{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete watchlist for %s: %w", userID, err)
	}
	return nil
}

func (s *watchlistStore) List(ctx context.Context) ([]*models.UserWatchlist, error) {
	var lists []models.UserWatchlist
	if err := s.db.store.Find(&lists, nil); err != nil {
		return nil, fmt.Errorf("failed to list watchlists: %w", err)
	}

	result := make([]*models.UserWatchlist, len(lists))
	for i := range lists {
		result[i] = &lists[i]
	}
	return result, nil
}
