// Package naver provides a client for the Naver Finance mobile API.
package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"alphatalk/internal/common"
	"alphatalk/internal/interfaces"
	"alphatalk/internal/models"
)

const (
	DefaultBaseURL   = "https://m.stock.naver.com/api"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client fetches fundamentals for KRX-listed tickers. It only serves
// the domestic market; six-digit codes are expected.
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

// NewClient creates a new Naver Finance client
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

var _ interfaces.FundamentalsProvider = (*Client)(nil)

// Name implements interfaces.FundamentalsProvider
func (c *Client) Name() string {
	return "naver"
}

// Supports implements interfaces.FundamentalsProvider
func (c *Client) Supports(market models.Market) bool {
	return market == models.MarketDomestic
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Naver API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Naver API request")

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

// integrationResponse is the stock overview payload. TotalInfos is a
// flat list of code/value pairs rendered for display, so values arrive
// as localized strings.
type integrationResponse struct {
	TotalInfos []struct {
		Code  string `json:"code"`
		Value string `json:"value"`
	} `json:"totalInfos"`
}

// financeResponse carries annual statement rows keyed by account title.
type financeResponse struct {
	Rows []struct {
		Title string `json:"title"`
		// Columns are ordered oldest to newest; the last entry is the
		// most recent fiscal year.
		Columns []string `json:"values"`
	} `json:"rows"`
}

// integrationMetrics maps totalInfos codes to metric names.
var integrationMetrics = map[string]models.MetricName{
	"per":         models.MetricPERatio,
	"pbr":         models.MetricPBRatio,
	"marketValue": models.MetricMarketCap,
}

// financeMetrics maps annual statement row titles to metric names.
// Titles come back in Korean.
var financeMetrics = map[string]models.MetricName{
	"매출액":   models.MetricRevenue,
	"당기순이익": models.MetricNetIncome,
	"자산총계":  models.MetricTotalAssets,
	"자본총계":  models.MetricShareholdersEquity,
	"ROE":   models.MetricROE,
	"ROA":   models.MetricROA,
	"부채비율":  models.MetricDebtRatio,
	"유동비율":  models.MetricCurrentRatio,
}

// FetchFundamentals implements interfaces.FundamentalsProvider
func (c *Client) FetchFundamentals(ctx context.Context, ticker string) (models.MetricSet, error) {
	metrics := models.MetricSet{}

	var overview integrationResponse
	if err := c.get(ctx, fmt.Sprintf("/stock/%s/integration", ticker), &overview); err != nil {
		return nil, err
	}

	for _, info := range overview.TotalInfos {
		name, ok := integrationMetrics[info.Code]
		if !ok {
			continue
		}
		if v, ok := parseKoreanNumber(info.Value); ok {
			metrics[name] = models.MetricValue{Value: v, Valid: true}
		}
	}

	var finance financeResponse
	if err := c.get(ctx, fmt.Sprintf("/stock/%s/finance/annual", ticker), &finance); err != nil {
		// The overview alone is a usable contribution.
		c.logger.Warn().Str("ticker", ticker).Err(err).Msg("Naver annual statements unavailable")
		return metrics, nil
	}

	for _, row := range finance.Rows {
		name, ok := financeMetrics[strings.TrimSpace(row.Title)]
		if !ok || len(row.Columns) == 0 {
			continue
		}
		if v, ok := parseKoreanNumber(row.Columns[len(row.Columns)-1]); ok {
			metrics[name] = models.MetricValue{Value: v, Valid: true}
		}
	}

	return metrics, nil
}

// parseKoreanNumber parses display-formatted numbers such as
// "1,234.56", "12조 3,456억" or "345억". Returns false for blanks and
// placeholders like "N/A".
func parseKoreanNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" || s == "-" {
		return 0, false
	}

	// Unit-suffixed amounts are expressed in won. Units must be
	// consumed largest first so compound values like "12조 3,456억"
	// slice correctly.
	units := []struct {
		symbol string
		scale  float64
	}{{"조", 1e12}, {"억", 1e8}, {"만", 1e4}}

	total := 0.0
	hasUnit := false
	for _, u := range units {
		unit, scale := u.symbol, u.scale
		idx := strings.Index(s, unit)
		if idx < 0 {
			continue
		}
		part := strings.ReplaceAll(strings.TrimSpace(s[:idx]), ",", "")
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, false
		}
		total += v * scale
		s = strings.TrimSpace(s[idx+len(unit):])
		hasUnit = true
	}
	if hasUnit {
		if s != "" {
			v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
			if err == nil {
				total += v
			}
		}
		return total, true
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSuffix(s, "배")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
