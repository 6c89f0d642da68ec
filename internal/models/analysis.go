package models

import (
	"strings"
	"time"
)

// AnalysisRecord is the persisted result of one full pipeline run.
// At most one record exists per ticker; every put replaces the whole
// document (no partial-field merge).
type AnalysisRecord struct {
	Ticker          string    `json:"ticker" badgerhold:"key"`
	Timestamp       time.Time `json:"timestamp"`
	QuantText       string    `json:"quant_text"`
	FundamentalText string    `json:"fundamental_text"`
	NewsText        string    `json:"news_text"`
	FinalText       string    `json:"final_text"`
	Error           string    `json:"error,omitempty"`
}

// HasError reports whether the record represents a failed cycle.
func (r *AnalysisRecord) HasError() bool {
	return r != nil && r.Error != ""
}

// RefreshState describes where a ticker sits in the refresh lifecycle.
type RefreshState string

const (
	RefreshStateFresh    RefreshState = "fresh"     // cached record within the freshness window
	RefreshStatePending  RefreshState = "pending"   // refresh scheduled, no usable record yet
	RefreshStateInFlight RefreshState = "in_flight" // pipeline currently executing
	RefreshStateError    RefreshState = "error"     // last cycle wrote an error record
)

// AnalysisStatus is the read-path response: either a fresh record or
// the state a caller should poll on.
type AnalysisStatus struct {
	Ticker string          `json:"ticker"`
	State  RefreshState    `json:"state"`
	Record *AnalysisRecord `json:"record,omitempty"`
}

// NormalizeTicker upper-cases and trims a ticker for use as a key.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// RefreshEvent is broadcast over the refresh WebSocket hub.
type RefreshEvent struct {
	Type      string    `json:"type"` // refresh_started, refresh_completed, refresh_failed
	Ticker    string    `json:"ticker"`
	RunID     string    `json:"run_id"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
