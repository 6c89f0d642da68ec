package models

import "time"

// PriceBar represents a single day's price data.
// Series are ordered ascending (oldest first, latest last).
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Signal is a strategy verdict.
type Signal string

const (
	SignalBuy         Signal = "BUY"
	SignalSell        Signal = "SELL"
	SignalHold        Signal = "HOLD"
	SignalHoldBullish Signal = "HOLD_BULLISH"
	SignalHoldBearish Signal = "HOLD_BEARISH"
)

// Bands holds Bollinger-style band levels.
type Bands struct {
	Upper float64 `json:"upper"`
	Lower float64 `json:"lower"`
	Mid   float64 `json:"mid"`
}

// TechnicalSnapshot is the output of one strategy evaluation over a
// price series. Fields not produced by the strategy stay absent.
type TechnicalSnapshot struct {
	Strategy     string      `json:"strategy"`
	CurrentPrice float64     `json:"current_price"`
	ShortMA      MetricValue `json:"short_ma"`
	LongMA       MetricValue `json:"long_ma"`
	RSI          MetricValue `json:"rsi"`
	Bands        *Bands      `json:"bands,omitempty"`
	Signal       Signal      `json:"signal"`
}

// TechnicalIndicators is the plain indicator block feeding the quant
// report, independent of any strategy.
type TechnicalIndicators struct {
	CurrentPrice float64     `json:"current_price"`
	MA5          MetricValue `json:"ma5"`
	MA20         MetricValue `json:"ma20"`
	RSI          MetricValue `json:"rsi"`
	DayChangePct MetricValue `json:"day_change_pct"`
	PeriodHigh   float64     `json:"period_high"`
	PeriodLow    float64     `json:"period_low"`
	Volume       int64       `json:"volume"`
}
