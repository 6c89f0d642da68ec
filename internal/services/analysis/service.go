// Package analysis runs the full research pipeline for one ticker and
// persists the resulting record.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"alphatalk/internal/common"
	"alphatalk/internal/interfaces"
	"alphatalk/internal/models"
)

// Service implements interfaces.AnalysisService.
type Service struct {
	fusion    interfaces.FusionEngine
	prices    interfaces.PriceProvider
	news      interfaces.NewsService
	synthesis interfaces.SynthesisClient
	store     interfaces.AnalysisStore
	logger    *common.Logger
}

// NewService wires the pipeline stages together.
func NewService(
	fusion interfaces.FusionEngine,
	prices interfaces.PriceProvider,
	news interfaces.NewsService,
	synthesis interfaces.SynthesisClient,
	store interfaces.AnalysisStore,
	logger *common.Logger,
) *Service {
	return &Service{
		fusion:    fusion,
		prices:    prices,
		news:      news,
		synthesis: synthesis,
		store:     store,
		logger:    logger,
	}
}

var _ interfaces.AnalysisService = (*Service)(nil)

// Analyze implements interfaces.AnalysisService. A pipeline that
// cannot produce usable fundamentals persists an error record; section
// failures downstream of fusion degrade that section only. The record
// is persisted exactly once, at the end.
func (s *Service) Analyze(ctx context.Context, ticker string) (*models.AnalysisRecord, error) {
	ticker = models.NormalizeTicker(ticker)
	started := time.Now()

	record := &models.AnalysisRecord{
		Ticker:    ticker,
		Timestamp: time.Now().UTC(),
	}

	fused, err := s.fusion.Fuse(ctx, ticker)
	if err != nil {
		var ide *models.InsufficientDataError
		if errors.As(err, &ide) {
			// Terminal for this cycle. The error record is served to
			// readers until it ages out.
			record.Error = ide.Error()
			if putErr := s.store.Put(ctx, record); putErr != nil {
				return nil, fmt.Errorf("failed to persist error record for %s: %w", ticker, putErr)
			}
			s.logger.Warn().Str("ticker", ticker).Float64("quality", ide.QualityScore).
				Msg("Analysis aborted on insufficient fundamental data")
			return record, nil
		}
		return nil, fmt.Errorf("fusion for %s: %w", ticker, err)
	}
	// The section builders are independent once fusion has succeeded,
	// so they run concurrently. Each one writes its own record field.
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		record.FundamentalText = buildFundamentalSection(fused)
	}()

	go func() {
		defer wg.Done()
		bars, err := s.prices.FetchPriceHistory(ctx, ticker, priceHistoryDays)
		if err != nil {
			s.logger.Warn().Str("ticker", ticker).Err(err).Msg("Price history unavailable")
			record.QuantText = fmt.Sprintf("Quantitative Analysis: %s\nPrice history unavailable.", ticker)
			return
		}
		record.QuantText = buildQuantSection(ticker, bars)
	}()

	go func() {
		defer wg.Done()
		newsText, err := s.news.Research(ctx, ticker)
		if err != nil {
			s.logger.Warn().Str("ticker", ticker).Err(err).Msg("News research unavailable")
			record.NewsText = fmt.Sprintf("News Research: %s\nCoverage unavailable.", ticker)
			return
		}
		record.NewsText = newsText
	}()

	wg.Wait()

	record.FinalText = s.synthesize(ctx, record)

	if err := s.store.Put(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist analysis for %s: %w", ticker, err)
	}

	s.logger.Info().Str("ticker", ticker).Dur("elapsed", time.Since(started)).Msg("Analysis complete")
	return record, nil
}

// synthesize asks the model for the final recommendation. A failed or
// empty reply falls back to a fixed string so the record still ships.
func (s *Service) synthesize(ctx context.Context, record *models.AnalysisRecord) string {
	prompt := strings.Join([]string{
		record.QuantText,
		record.FundamentalText,
		record.NewsText,
	}, "\n\n")

	reply, err := s.synthesis.Complete(ctx, synthesisSystemPrompt, prompt)
	if err != nil {
		s.logger.Warn().Str("ticker", record.Ticker).Err(err).Msg("Synthesis failed")
		return SynthesisFallback
	}
	if strings.TrimSpace(reply) == "" {
		s.logger.Warn().Str("ticker", record.Ticker).Msg("Synthesis returned empty content")
		return SynthesisFallback
	}
	return reply
}
