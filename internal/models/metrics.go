// Package models defines data structures for alphatalk
package models

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// MetricName identifies a canonical fundamental metric.
type MetricName string

// Canonical metric names. Monetary figures are kept in the reporting
// unit of the ticker's market (hundred-million-won multiples for
// domestic tables, native reported units for foreign figures). The
// fusion engine never cross-converts between markets.
const (
	MetricRevenue            MetricName = "revenue"
	MetricNetIncome          MetricName = "net_income"
	MetricTotalAssets        MetricName = "total_assets"
	MetricShareholdersEquity MetricName = "shareholders_equity"
	MetricMarketCap          MetricName = "market_cap"
	MetricPERatio            MetricName = "pe_ratio"
	MetricPBRatio            MetricName = "pb_ratio"
	MetricROE                MetricName = "roe"
	MetricROA                MetricName = "roa"
	MetricDebtRatio          MetricName = "debt_ratio"
	MetricCurrentRatio       MetricName = "current_ratio"
	MetricGrossMargin        MetricName = "gross_margin"
	MetricAssetGrowth        MetricName = "asset_growth"
)

// MetricEarningsGrowth rides alongside the canonical grid. It feeds the
// earnings momentum line of the fundamental report and never counts
// toward quality scoring or the metric table.
const MetricEarningsGrowth MetricName = "earnings_growth"

// CriticalMetrics are the nine metrics required for a usable quality score.
var CriticalMetrics = []MetricName{
	MetricRevenue,
	MetricNetIncome,
	MetricTotalAssets,
	MetricShareholdersEquity,
	MetricMarketCap,
	MetricPERatio,
	MetricPBRatio,
	MetricROE,
	MetricROA,
}

// AllMetrics lists every canonical metric name.
var AllMetrics = []MetricName{
	MetricRevenue,
	MetricNetIncome,
	MetricTotalAssets,
	MetricShareholdersEquity,
	MetricMarketCap,
	MetricPERatio,
	MetricPBRatio,
	MetricROE,
	MetricROA,
	MetricDebtRatio,
	MetricCurrentRatio,
	MetricGrossMargin,
	MetricAssetGrowth,
}

// MetricValue is an explicit optional: a metric is either absent or a
// finite number. String sentinels like "N/A" are never stored; they
// are rendered only at report-formatting time.
type MetricValue struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// Num returns a present MetricValue. Non-finite inputs collapse to absent.
func Num(v float64) MetricValue {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return MetricValue{}
	}
	return MetricValue{Value: v, Valid: true}
}

// Absent returns an absent MetricValue.
func Absent() MetricValue {
	return MetricValue{}
}

// IsAbsent reports whether the value is missing.
func (m MetricValue) IsAbsent() bool {
	return !m.Valid
}

// Format renders the value with the given precision, or "N/A" when absent.
func (m MetricValue) Format(precision int) string {
	if !m.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%.*f", precision, m.Value)
}

// MetricSet maps canonical metric names to optional values.
type MetricSet map[MetricName]MetricValue

// Get returns the stored value, or absent when the key is not set.
func (s MetricSet) Get(name MetricName) MetricValue {
	return s[name]
}

// Has reports whether a present value exists for name.
func (s MetricSet) Has(name MetricName) bool {
	return s[name].Valid
}

// Clone returns an independent copy of the set.
func (s MetricSet) Clone() MetricSet {
	out := make(MetricSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// FusionResult is the immutable outcome of one fusion run. A new
// FusionResult replaces the old one; it is never mutated in place.
type FusionResult struct {
	Ticker          string       `json:"ticker"`
	Market          Market       `json:"market"`
	Metrics         MetricSet    `json:"metrics"`
	SourcesUsed     []string     `json:"sources_used"` // providers contributing >=1 metric, in fill order
	QualityScore    float64      `json:"quality_score"`
	MissingCritical []MetricName `json:"missing_critical"`
	FusedAt         time.Time    `json:"fused_at"`
}

// Market classifies a ticker's venue.
type Market string

const (
	MarketDomestic Market = "domestic" // 6-digit numeric code (KRX)
	MarketForeign  Market = "foreign"  // alphabetic symbol
)

// ClassifyMarket decides the venue from the ticker's shape. Exactly
// six digits means a KRX code; everything else is treated as foreign.
func ClassifyMarket(ticker string) Market {
	if len(ticker) != 6 {
		return MarketForeign
	}
	for _, r := range ticker {
		if r < '0' || r > '9' {
			return MarketForeign
		}
	}
	return MarketDomestic
}

// InsufficientDataError is returned when fusion cannot reach the
// minimum critical-metric coverage. It is terminal for the cycle.
type InsufficientDataError struct {
	Ticker          string
	QualityScore    float64
	SourcesTried    []string
	MissingCritical []MetricName
}

func (e *InsufficientDataError) Error() string {
	missing := make([]string, len(e.MissingCritical))
	for i, m := range e.MissingCritical {
		missing[i] = string(m)
	}
	sort.Strings(missing)
	return fmt.Sprintf("insufficient fundamental data for %s: quality %.0f, tried [%s], missing [%s]",
		e.Ticker, e.QualityScore, strings.Join(e.SourcesTried, ", "), strings.Join(missing, ", "))
}
