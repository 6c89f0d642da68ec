package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"alphatalk/internal/common"
	"alphatalk/internal/interfaces"
	"alphatalk/internal/models"
)

// tickerStore implements interfaces.TickerStore using BadgerDB.
type tickerStore struct {
	db     *BadgerDB
	logger *common.Logger
}

func newTickerStore(db *BadgerDB, logger *common.Logger) *tickerStore {
	return &tickerStore{db: db, logger: logger}
}

var _ interfaces.TickerStore = (*tickerStore)(nil)

func (s *tickerStore) Add(ctx context.Context, ticker string) (bool, error) {
	entry := models.GlobalTicker{
		Ticker:  models.NormalizeTicker(ticker),
		AddedAt: time.Now().UTC(),
	}

	err := s.db.store.Insert(entry.Ticker, &entry)
	if err != nil {
		if err == badgerhold.ErrKeyExists {
			return false, nil
		}
		return false, fmt.Errorf("failed to add ticker %s: %w", entry.Ticker, err)
	}

	s.logger.Debug().Str("ticker", entry.Ticker).Msg("Global ticker added")
	return true, nil
}

func (s *tickerStore) Remove(ctx context.Context, ticker string) error {
	err := s.db.store.Delete(models.NormalizeTicker(ticker), &models.GlobalTicker{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to remove ticker %s: %w", ticker, err)
	}
	return nil
}

func (s *tickerStore) List(ctx context.Context) ([]string, error) {
	var entries []models.GlobalTicker
	if err := s.db.store.Find(&entries, nil); err != nil {
		return nil, fmt.Errorf("failed to list tickers: %w", err)
	}

	tickers := make([]string, len(entries))
	for i, e := range entries {
		tickers[i] = e.Ticker
	}
	sort.Strings(tickers)
	return tickers, nil
}
