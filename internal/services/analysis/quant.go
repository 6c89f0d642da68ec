package analysis

import (
	"fmt"
	"strings"

	"alphatalk/internal/models"
	"alphatalk/internal/signals"
)

// Strategy windows for the quant report.
const (
	counterTrendWindow = 20
	counterTrendK      = 2.0
	trendShortWindow   = 5
	trendLongWindow    = 20

	// priceHistoryDays covers the longest window plus the crossover
	// lookback with margin for holidays.
	priceHistoryDays = 60
)

// buildQuantSection renders the quant_text block from a price series.
// Each strategy degrades independently on short history.
func buildQuantSection(ticker string, bars []models.PriceBar) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Quantitative Analysis: %s\n", ticker)

	ind := signals.Indicators(bars)
	fmt.Fprintf(&sb, "Price: %.2f (day change %s%%)\n", ind.CurrentPrice, ind.DayChangePct.Format(2))
	fmt.Fprintf(&sb, "MA5: %s  MA20: %s  RSI(14): %s\n", ind.MA5.Format(2), ind.MA20.Format(2), ind.RSI.Format(2))
	fmt.Fprintf(&sb, "Period high/low: %.2f / %.2f\n", ind.PeriodHigh, ind.PeriodLow)

	sb.WriteString("\nStrategies:\n")

	if snap, err := signals.CounterTrend(bars, counterTrendK, counterTrendWindow); err != nil {
		fmt.Fprintf(&sb, "- counter-trend: signal unavailable (%v)\n", err)
	} else {
		fmt.Fprintf(&sb, "- counter-trend: %s (bands %.2f / %.2f / %.2f)\n",
			snap.Signal, snap.Bands.Lower, snap.Bands.Mid, snap.Bands.Upper)
	}

	if snap, err := signals.TrendFollowing(bars, trendShortWindow, trendLongWindow); err != nil {
		fmt.Fprintf(&sb, "- trend-following: signal unavailable (%v)\n", err)
	} else {
		fmt.Fprintf(&sb, "- trend-following: %s (short MA %s, long MA %s)\n",
			snap.Signal, snap.ShortMA.Format(2), snap.LongMA.Format(2))
	}

	return sb.String()
}
