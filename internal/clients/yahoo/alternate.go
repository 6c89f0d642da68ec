package yahoo

import (
	"context"

	"alphatalk/internal/interfaces"
	"alphatalk/internal/models"
)

// Alternate exposes the statement-history field mapping as its own
// provider so it can occupy a separate slot in a fallback chain.
type Alternate struct {
	client *Client
}

// NewAlternate wraps an existing client.
func NewAlternate(client *Client) *Alternate {
	return &Alternate{client: client}
}

var _ interfaces.FundamentalsProvider = (*Alternate)(nil)

// Name implements interfaces.FundamentalsProvider
func (a *Alternate) Name() string {
	return "yahoo_alt"
}

// Supports implements interfaces.FundamentalsProvider
func (a *Alternate) Supports(market models.Market) bool {
	return true
}

// FetchFundamentals implements interfaces.FundamentalsProvider
func (a *Alternate) FetchFundamentals(ctx context.Context, ticker string) (models.MetricSet, error) {
	return a.client.FetchAlternateFundamentals(ctx, ticker)
}
