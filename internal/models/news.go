package models

import "time"

// NewsArticle is one article considered by the news agent.
// Sentiment stays absent until the oracle has scored the body.
type NewsArticle struct {
	Title       string      `json:"title"`
	Body        string      `json:"body"`
	URL         string      `json:"url"`
	Source      string      `json:"source"`
	PublishedAt time.Time   `json:"published_at"`
	Sentiment   MetricValue `json:"sentiment"` // [-1, 1] when scored
}

// SentimentLabel buckets a score into the label the report renders.
func SentimentLabel(score float64) string {
	switch {
	case score > 0.15:
		return "positive"
	case score < -0.15:
		return "negative"
	default:
		return "neutral"
	}
}
