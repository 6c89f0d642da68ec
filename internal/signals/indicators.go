package signals

import (
	"alphatalk/internal/models"
)

// Indicators derives the quant report figures from a daily series.
// Individual figures go absent rather than zero when the series is too
// short for their window.
func Indicators(bars []models.PriceBar) *models.TechnicalIndicators {
	ind := &models.TechnicalIndicators{
		MA5:          models.Absent(),
		MA20:         models.Absent(),
		RSI:          models.Absent(),
		DayChangePct: models.Absent(),
	}
	if len(bars) == 0 {
		return ind
	}

	last := len(bars) - 1
	ind.CurrentPrice = bars[last].Close
	ind.Volume = bars[last].Volume

	if len(bars) >= 5 {
		ind.MA5 = models.Num(SMA(bars, last, 5))
	}
	if len(bars) >= 20 {
		ind.MA20 = models.Num(SMA(bars, last, 20))
	}
	ind.RSI = RSI(bars, RSIPeriod)

	if len(bars) >= 2 && bars[last-1].Close != 0 {
		prev := bars[last-1].Close
		ind.DayChangePct = models.Num((bars[last].Close - prev) / prev * 100)
	}

	high, low := bars[0].High, bars[0].Low
	if low == 0 {
		low = bars[0].Close
	}
	for _, b := range bars {
		h, l := b.High, b.Low
		if h == 0 {
			h = b.Close
		}
		if l == 0 {
			l = b.Close
		}
		if h > high {
			high = h
		}
		if l < low {
			low = l
		}
	}
	ind.PeriodHigh = high
	ind.PeriodLow = low

	return ind
}
