package storage

import (
	"fmt"

	"alphatalk/internal/common"
	"alphatalk/internal/interfaces"
)

// Manager implements interfaces.StorageManager over a single BadgerDB.
type Manager struct {
	db        *BadgerDB
	analysis  *analysisStore
	watchlist *watchlistStore
	ticker    *tickerStore
	logger    *common.Logger
}

// NewManager opens the database and wires the typed stores.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	db, err := NewBadgerDB(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	logger.Info().Str("path", config.Storage.Path).Msg("Storage manager initialized")

	return &Manager{
		db:        db,
		analysis:  newAnalysisStore(db, logger),
		watchlist: newWatchlistStore(db, logger),
		ticker:    newTickerStore(db, logger),
		logger:    logger,
	}, nil
}

var _ interfaces.StorageManager = (*Manager)(nil)

func (m *Manager) AnalysisStore() interfaces.AnalysisStore {
	return m.analysis
}

func (m *Manager) WatchlistStore() interfaces.WatchlistStore {
	return m.watchlist
}

func (m *Manager) TickerStore() interfaces.TickerStore {
	return m.ticker
}

func (m *Manager) Close() error {
	return m.db.Close()
}
