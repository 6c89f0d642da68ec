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

// analysisStore implements interfaces.AnalysisStore using BadgerDB.
type analysisStore struct {
	db     *BadgerDB
	logger *common.Logger
}

func newAnalysisStore(db *BadgerDB, logger *common.Logger) *analysisStore {
	return &analysisStore{db: db, logger: logger}
}

var _ interfaces.AnalysisStore = (*analysisStore)(nil)

func (s *analysisStore) Get(ctx context.Context, ticker string, maxAge time.Duration) (*models.AnalysisRecord, error) {
	record, err := s.Latest(ctx, ticker)
	if err != nil || record == nil {
		return nil, err
	}
	if !common.IsFresh(record.Timestamp, maxAge) {
		return nil, nil
	}
	return record, nil
}

func (s *analysisStore) Latest(ctx context.Context, ticker string) (*models.AnalysisRecord, error) {
	var record models.AnalysisRecord
	err := s.db.store.Get(models.NormalizeTicker(ticker), &record)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get analysis record: %w", err)
	}
	return &record, nil
}

func (s *analysisStore) Put(ctx context.Context, record *models.AnalysisRecord) error {
	record.Ticker = models.NormalizeTicker(record.Ticker)
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	if err := s.db.store.Upsert(record.Ticker, record); err != nil {
		return fmt.Errorf("failed to save analysis record: %w", err)
	}
	s.logger.Debug().Str("ticker", record.Ticker).Bool("error", record.HasError()).Msg("Analysis record saved")
	return nil
}

func (s *analysisStore) PurgeOlderThan(ctx context.Context, days int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	var stale []models.AnalysisRecord
	query := badgerhold.Where("Timestamp").Lt(cutoff)
	if err := s.db.store.Find(&stale, query); err != nil {
		return 0, fmt.Errorf("failed to find stale records: %w", err)
	}

	for _, record := range stale {
		if err := s.db.store.Delete(record.Ticker, &models.AnalysisRecord{}); err != nil {
			return 0, fmt.Errorf("failed to delete record for %s: %w", record.Ticker, err)
		}
	}

	if len(stale) > 0 {
		s.logger.Info().Int("count", len(stale)).Int("days", days).Msg("Purged stale analysis records")
	}
	return len(stale), nil
}
