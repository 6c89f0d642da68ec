package interfaces

import (
	"context"

	"alphatalk/internal/models"
)

// FundamentalsProvider fetches raw fundamental metrics from a single
// upstream source. Providers know nothing about each other; the fusion
// engine owns ordering and merging.
type FundamentalsProvider interface {
	// Name identifies the source in logs and FusionResult.SourcesUsed.
	Name() string

	// Supports reports whether this provider can serve the given market.
	Supports(market models.Market) bool

	// FetchFundamentals returns whatever metrics the source has for the
	// ticker. Missing metrics are simply absent from the set. An error
	// means the source itself failed; the caller treats it as an empty
	// contribution.
	FetchFundamentals(ctx context.Context, ticker string) (models.MetricSet, error)
}

// PriceProvider fetches historical daily price bars.
type PriceProvider interface {
	// FetchPriceHistory returns up to days of daily bars in ascending
	// chronological order. Fewer bars than requested is not an error.
	FetchPriceHistory(ctx context.Context, ticker string, days int) ([]models.PriceBar, error)
}

// NewsProvider fetches recent news articles for a ticker.
type NewsProvider interface {
	// FetchNews returns articles published within lookbackDays, newest
	// first, capped at limit.
	FetchNews(ctx context.Context, ticker string, lookbackDays, limit int) ([]models.NewsArticle, error)
}

// SentimentOracle scores a piece of text for sentiment.
type SentimentOracle interface {
	// ScoreSentiment returns a score in [-1, 1] where negative values
	// indicate bearish tone. Implementations must clamp out-of-range
	// model output.
	ScoreSentiment(ctx context.Context, text string) (float64, error)
}

// SynthesisClient generates analysis prose from a prompt pair.
type SynthesisClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
