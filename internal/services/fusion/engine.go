// Package fusion merges fundamental metrics from an ordered chain of
// providers into a single quality-scored result.
package fusion

import (
	"context"
	"math"
	"time"

	"alphatalk/internal/common"
	"alphatalk/internal/interfaces"
	"alphatalk/internal/models"
)

// MinQualityScore is the coverage floor below which a fusion run is
// reported as insufficient rather than returned.
const MinQualityScore = 20.0

// Engine implements interfaces.FusionEngine. Providers are tried in
// the order given; earlier providers win for any metric they supply.
type Engine struct {
	providers []interfaces.FundamentalsProvider
	logger    *common.Logger
}

// NewEngine creates a fusion engine over an ordered provider chain.
func NewEngine(logger *common.Logger, providers ...interfaces.FundamentalsProvider) *Engine {
	return &Engine{
		providers: providers,
		logger:    logger,
	}
}

var _ interfaces.FusionEngine = (*Engine)(nil)

// Fuse implements interfaces.FusionEngine. Every market-appropriate
// provider is queried even when earlier ones answered, so later
// sources can fill the gaps the earlier ones left. A provider failure
// is an empty contribution, never fatal.
func (e *Engine) Fuse(ctx context.Context, ticker string) (*models.FusionResult, error) {
	ticker = models.NormalizeTicker(ticker)
	market := models.ClassifyMarket(ticker)

	merged := models.MetricSet{}
	var sourcesUsed []string
	var sourcesTried []string

	for _, provider := range e.providers {
		if !provider.Supports(market) {
			continue
		}
		sourcesTried = append(sourcesTried, provider.Name())

		metrics, err := provider.FetchFundamentals(ctx, ticker)
		if err != nil {
			e.logger.Warn().Str("ticker", ticker).Str("source", provider.Name()).Err(err).
				Msg("Fundamental source failed, trying next")
			continue
		}

		if merge(merged, metrics) > 0 {
			sourcesUsed = append(sourcesUsed, provider.Name())
		}

		if complete(merged) {
			break
		}
	}

	score, missing := scoreCritical(merged)
	if score < MinQualityScore {
		return nil, &models.InsufficientDataError{
			Ticker:          ticker,
			QualityScore:    score,
			SourcesTried:    sourcesTried,
			MissingCritical: missing,
		}
	}

	e.logger.Debug().Str("ticker", ticker).Float64("quality", score).
		Strs("sources", sourcesUsed).Msg("Fundamentals fused")

	return &models.FusionResult{
		Ticker:          ticker,
		Market:          market,
		Metrics:         merged,
		SourcesUsed:     sourcesUsed,
		QualityScore:    score,
		MissingCritical: missing,
		FusedAt:         time.Now().UTC(),
	}, nil
}

// merge fills gaps in dst from src and returns how many metrics were
// written. A metric already present is never overwritten, and a zero
// or non-finite source value never counts as present.
func merge(dst, src models.MetricSet) int {
	filled := 0
	for name, value := range src {
		if !usable(value) {
			continue
		}
		if existing, ok := dst[name]; ok && usable(existing) {
			continue
		}
		dst[name] = value
		filled++
	}
	return filled
}

// usable reports whether a value counts as real data. Exact zero is
// treated as a scrape artifact, not a measurement.
func usable(v models.MetricValue) bool {
	return v.Valid && v.Value != 0 && !math.IsNaN(v.Value) && !math.IsInf(v.Value, 0)
}

// complete reports whether every known metric is filled, letting the
// chain stop early.
func complete(set models.MetricSet) bool {
	for _, name := range models.AllMetrics {
		if !usable(set.Get(name)) {
			return false
		}
	}
	return true
}

// scoreCritical computes critical-metric coverage as a 0-100 score and
// the list of missing critical metrics.
func scoreCritical(set models.MetricSet) (float64, []models.MetricName) {
	var missing []models.MetricName
	present := 0
	for _, name := range models.CriticalMetrics {
		if usable(set.Get(name)) {
			present++
		} else {
			missing = append(missing, name)
		}
	}
	score := float64(present) / float64(len(models.CriticalMetrics)) * 100
	return score, missing
}
