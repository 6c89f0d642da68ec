// Package yahoo provides a client for the Yahoo Finance API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"alphatalk/internal/common"
	"alphatalk/internal/interfaces"
	"alphatalk/internal/models"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 20 * time.Second
	DefaultRateLimit = 5 // requests per second

	// Six-digit KRX codes need an exchange suffix on Yahoo.
	krxSuffix = ".KS"
)

// Client fetches fundamentals and daily price history. It serves both
// markets; domestic tickers are translated to Yahoo's KRX symbols.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Yahoo Finance client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

var (
	_ interfaces.FundamentalsProvider = (*Client)(nil)
	_ interfaces.PriceProvider        = (*Client)(nil)
)

// Name implements interfaces.FundamentalsProvider
func (c *Client) Name() string {
	return "yahoo"
}

// Supports implements interfaces.FundamentalsProvider
func (c *Client) Supports(market models.Market) bool {
	return true
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Yahoo API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// symbol translates a normalized ticker into a Yahoo symbol.
func symbol(ticker string) string {
	if models.ClassifyMarket(ticker) == models.MarketDomestic {
		return ticker + krxSuffix
	}
	return ticker
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "alphatalk/"+common.GetVersion())

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Yahoo API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// rawValue is Yahoo's number wrapper: {"raw": 1.23, "fmt": "1.23"}.
type rawValue struct {
	Raw *float64 `json:"raw"`
}

func (v rawValue) metric() (models.MetricValue, bool) {
	if v.Raw == nil {
		return models.Absent(), false
	}
	return models.MetricValue{Value: *v.Raw, Valid: true}, true
}

// pct converts a Yahoo fraction (0.123) to a percentage metric (12.3).
func (v rawValue) pct() (models.MetricValue, bool) {
	if v.Raw == nil {
		return models.Absent(), false
	}
	return models.MetricValue{Value: *v.Raw * 100, Valid: true}, true
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []quoteSummaryResult `json:"result"`
		Error  *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

type quoteSummaryResult struct {
	FinancialData *struct {
		TotalRevenue   rawValue `json:"totalRevenue"`
		ReturnOnEquity rawValue `json:"returnOnEquity"`
		ReturnOnAssets rawValue `json:"returnOnAssets"`
		GrossMargins   rawValue `json:"grossMargins"`
		CurrentRatio   rawValue `json:"currentRatio"`
		DebtToEquity   rawValue `json:"debtToEquity"`
		EarningsGrowth rawValue `json:"earningsGrowth"`
	} `json:"financialData"`
	DefaultKeyStatistics *struct {
		PriceToBook       rawValue `json:"priceToBook"`
		ForwardPE         rawValue `json:"forwardPE"`
		NetIncomeToCommon rawValue `json:"netIncomeToCommon"`
		EnterpriseValue   rawValue `json:"enterpriseValue"`
	} `json:"defaultKeyStatistics"`
	SummaryDetail *struct {
		TrailingPE rawValue `json:"trailingPE"`
		MarketCap  rawValue `json:"marketCap"`
	} `json:"summaryDetail"`
	BalanceSheetHistory *struct {
		Statements []struct {
			TotalAssets            rawValue `json:"totalAssets"`
			TotalStockholderEquity rawValue `json:"totalStockholderEquity"`
		} `json:"balanceSheetStatements"`
	} `json:"balanceSheetHistory"`
	IncomeStatementHistory *struct {
		Statements []struct {
			TotalRevenue rawValue `json:"totalRevenue"`
			NetIncome    rawValue `json:"netIncome"`
		} `json:"incomeStatementHistory"`
	} `json:"incomeStatementHistory"`
}

func (c *Client) quoteSummary(ctx context.Context, ticker string, modules string) (*quoteSummaryResult, error) {
	params := url.Values{}
	params.Set("modules", modules)

	var resp quoteSummaryResponse
	path := fmt.Sprintf("/v10/finance/quoteSummary/%s", symbol(ticker))
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}
	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("quote summary: %s", resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("quote summary: no result for %s", ticker)
	}
	return &resp.QuoteSummary.Result[0], nil
}

// FetchFundamentals implements interfaces.FundamentalsProvider using
// the snapshot modules.
func (c *Client) FetchFundamentals(ctx context.Context, ticker string) (models.MetricSet, error) {
	res, err := c.quoteSummary(ctx, ticker, "financialData,defaultKeyStatistics,summaryDetail")
	if err != nil {
		return nil, err
	}

	metrics := models.MetricSet{}

	if fd := res.FinancialData; fd != nil {
		if v, ok := fd.TotalRevenue.metric(); ok {
			metrics[models.MetricRevenue] = v
		}
		if v, ok := fd.ReturnOnEquity.pct(); ok {
			metrics[models.MetricROE] = v
		}
		if v, ok := fd.ReturnOnAssets.pct(); ok {
			metrics[models.MetricROA] = v
		}
		if v, ok := fd.GrossMargins.pct(); ok {
			metrics[models.MetricGrossMargin] = v
		}
		if v, ok := fd.CurrentRatio.metric(); ok {
			metrics[models.MetricCurrentRatio] = v
		}
		if v, ok := fd.DebtToEquity.metric(); ok {
			metrics[models.MetricDebtRatio] = v
		}
		if v, ok := fd.EarningsGrowth.pct(); ok {
			metrics[models.MetricEarningsGrowth] = v
		}
	}
	if ks := res.DefaultKeyStatistics; ks != nil {
		if v, ok := ks.PriceToBook.metric(); ok {
			metrics[models.MetricPBRatio] = v
		}
		if v, ok := ks.NetIncomeToCommon.metric(); ok {
			metrics[models.MetricNetIncome] = v
		}
	}
	if sd := res.SummaryDetail; sd != nil {
		if v, ok := sd.TrailingPE.metric(); ok {
			metrics[models.MetricPERatio] = v
		}
		if v, ok := sd.MarketCap.metric(); ok {
			metrics[models.MetricMarketCap] = v
		}
	}

	return metrics, nil
}

// FetchAlternateFundamentals pulls the same figures from the statement
// history modules, which often populate when the snapshot modules come
// back empty for thinly covered symbols.
func (c *Client) FetchAlternateFundamentals(ctx context.Context, ticker string) (models.MetricSet, error) {
	res, err := c.quoteSummary(ctx, ticker, "balanceSheetHistory,incomeStatementHistory,defaultKeyStatistics")
	if err != nil {
		return nil, err
	}

	metrics := models.MetricSet{}

	if bs := res.BalanceSheetHistory; bs != nil && len(bs.Statements) > 0 {
		latest := bs.Statements[0]
		if v, ok := latest.TotalAssets.metric(); ok {
			metrics[models.MetricTotalAssets] = v
		}
		if v, ok := latest.TotalStockholderEquity.metric(); ok {
			metrics[models.MetricShareholdersEquity] = v
		}
		// Asset growth needs two fiscal years of balance sheets.
		if len(bs.Statements) > 1 {
			cur, okCur := latest.TotalAssets.metric()
			prev, okPrev := bs.Statements[1].TotalAssets.metric()
			if okCur && okPrev && prev.Value != 0 {
				growth := (cur.Value - prev.Value) / prev.Value * 100
				metrics[models.MetricAssetGrowth] = models.Num(growth)
			}
		}
	}
	if is := res.IncomeStatementHistory; is != nil && len(is.Statements) > 0 {
		latest := is.Statements[0]
		if v, ok := latest.TotalRevenue.metric(); ok {
			metrics[models.MetricRevenue] = v
		}
		if v, ok := latest.NetIncome.metric(); ok {
			metrics[models.MetricNetIncome] = v
		}
	}
	if ks := res.DefaultKeyStatistics; ks != nil {
		if v, ok := ks.ForwardPE.metric(); ok {
			metrics[models.MetricPERatio] = v
		}
		if v, ok := ks.EnterpriseValue.metric(); ok {
			metrics[models.MetricMarketCap] = v
		}
	}

	return metrics, nil
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchPriceHistory implements interfaces.PriceProvider. Bars come
// back oldest first; entries with a null close (halted sessions) are
// dropped.
func (c *Client) FetchPriceHistory(ctx context.Context, ticker string, days int) ([]models.PriceBar, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", rangeParam(days))

	var resp chartResponse
	path := fmt.Sprintf("/v8/finance/chart/%s", symbol(ticker))
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart: no result for %s", ticker)
	}

	result := resp.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	bars := make([]models.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bar := models.PriceBar{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		bars = append(bars, bar)
	}

	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

// rangeParam picks the smallest chart range covering days calendar
// days of trading sessions.
func rangeParam(days int) string {
	switch {
	case days <= 5:
		return "5d"
	case days <= 21:
		return "1mo"
	case days <= 63:
		return "3mo"
	case days <= 126:
		return "6mo"
	case days <= 252:
		return "1y"
	default:
		return "2y"
	}
}
