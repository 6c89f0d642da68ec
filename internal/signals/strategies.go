// Package signals provides technical indicator and strategy calculations.
// All functions are pure: they take an ascending daily price series and
// return a snapshot, never touching the network or storage.
package signals

import (
	"fmt"
	"math"

	"alphatalk/internal/models"
)

const (
	StrategyCounterTrend   = "counter_trend"
	StrategyTrendFollowing = "trend_following"

	// RSIPeriod is the lookback for the quant report oscillator.
	RSIPeriod = 14
)

// InsufficientHistoryError reports a series too short for a strategy
// window. It fails one strategy, not the whole pipeline.
type InsufficientHistoryError struct {
	Strategy string
	Need     int
	Have     int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("%s needs %d bars, have %d", e.Strategy, e.Need, e.Have)
}

// SMA calculates the simple moving average over the last period bars
// ending at index end (inclusive).
func SMA(bars []models.PriceBar, end, period int) float64 {
	sum := 0.0
	for i := end - period + 1; i <= end; i++ {
		sum += bars[i].Close
	}
	return sum / float64(period)
}

// stdDev is the population standard deviation of the last period
// closes ending at index end.
func stdDev(bars []models.PriceBar, end, period int, mean float64) float64 {
	sumSq := 0.0
	for i := end - period + 1; i <= end; i++ {
		d := bars[i].Close - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(period))
}

// CounterTrend computes mean-reversion bands over the last windowDays
// closes. The signal is BUY at or below the lower band and SELL at or
// above the upper band; both boundaries are inclusive.
func CounterTrend(bars []models.PriceBar, k float64, windowDays int) (*models.TechnicalSnapshot, error) {
	if len(bars) < windowDays {
		return nil, &InsufficientHistoryError{Strategy: StrategyCounterTrend, Need: windowDays, Have: len(bars)}
	}

	last := len(bars) - 1
	mean := SMA(bars, last, windowDays)
	std := stdDev(bars, last, windowDays, mean)

	bands := &models.Bands{
		Upper: mean + k*std,
		Lower: mean - k*std,
		Mid:   mean,
	}

	close := bars[last].Close
	signal := models.SignalHold
	switch {
	case close <= bands.Lower:
		signal = models.SignalBuy
	case close >= bands.Upper:
		signal = models.SignalSell
	}

	return &models.TechnicalSnapshot{
		Strategy:     StrategyCounterTrend,
		CurrentPrice: close,
		RSI:          RSI(bars, RSIPeriod),
		Bands:        bands,
		Signal:       signal,
	}, nil
}

// TrendFollowing computes short/long moving averages and detects the
// exact crossover step. Off-crossover steps report HOLD_BULLISH or
// HOLD_BEARISH by the current ordering; equal averages count as
// not-bullish.
func TrendFollowing(bars []models.PriceBar, shortWindow, longWindow int) (*models.TechnicalSnapshot, error) {
	// One extra bar is needed for the previous-step averages.
	if len(bars) < longWindow+1 {
		return nil, &InsufficientHistoryError{Strategy: StrategyTrendFollowing, Need: longWindow + 1, Have: len(bars)}
	}

	last := len(bars) - 1
	curShort := SMA(bars, last, shortWindow)
	curLong := SMA(bars, last, longWindow)
	prevShort := SMA(bars, last-1, shortWindow)
	prevLong := SMA(bars, last-1, longWindow)

	var signal models.Signal
	switch {
	case prevShort <= prevLong && curShort > curLong:
		signal = models.SignalBuy
	case prevShort >= prevLong && curShort < curLong:
		signal = models.SignalSell
	case curShort > curLong:
		signal = models.SignalHoldBullish
	default:
		signal = models.SignalHoldBearish
	}

	return &models.TechnicalSnapshot{
		Strategy:     StrategyTrendFollowing,
		CurrentPrice: bars[last].Close,
		ShortMA:      models.Num(curShort),
		LongMA:       models.Num(curLong),
		RSI:          RSI(bars, RSIPeriod),
		Signal:       signal,
	}, nil
}

// RSI calculates the relative strength index over the last period
// steps. The result is absent when the series is too short or the
// average loss is zero; callers render that as "N/A", never as 0.
func RSI(bars []models.PriceBar, period int) models.MetricValue {
	if len(bars) < period+1 {
		return models.Absent()
	}

	var gains, losses float64
	start := len(bars) - period
	for i := start; i < len(bars); i++ {
		change := bars[i].Close - bars[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return models.Absent()
	}

	rs := avgGain / avgLoss
	return models.Num(100 - (100 / (1 + rs)))
}
