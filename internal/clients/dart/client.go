// Package dart provides a client for the OpenDART corporate filing API.
package dart

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"alphatalk/internal/common"
	"alphatalk/internal/interfaces"
	"alphatalk/internal/models"
)

const (
	DefaultBaseURL   = "https://opendart.fss.or.kr/api"
	DefaultTimeout   = 20 * time.Second
	DefaultRateLimit = 2 // requests per second, OpenDART throttles hard

	// Annual report filing code.
	reportAnnual = "11011"

	// DART status for an empty result set.
	statusNoData = "013"
)

// Client fetches audited statement figures for KRX-listed companies.
// It is the last resort in a fusion chain: slow, key-gated and limited
// to raw statement amounts.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter

	mu        sync.Mutex
	corpCodes map[string]string // stock code -> DART corp code
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

// NewClient creates a new OpenDART client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:   rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:    common.NewSilentLogger(),
		corpCodes: make(map[string]string),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

var _ interfaces.FundamentalsProvider = (*Client)(nil)

// Name implements interfaces.FundamentalsProvider
func (c *Client) Name() string {
	return "dart"
}

// Supports implements interfaces.FundamentalsProvider
func (c *Client) Supports(market models.Market) bool {
	return market == models.MarketDomestic && c.apiKey != ""
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("DART API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("crtfc_key", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("DART API request")

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

type corpCodeResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	CorpCode string `json:"corp_code"`
}

// resolveCorpCode maps a stock code to DART's internal corp code,
// caching hits for the life of the client.
func (c *Client) resolveCorpCode(ctx context.Context, ticker string) (string, error) {
	c.mu.Lock()
	if code, ok := c.corpCodes[ticker]; ok {
		c.mu.Unlock()
		return code, nil
	}
	c.mu.Unlock()

	params := url.Values{}
	params.Set("stock_code", ticker)

	var resp corpCodeResponse
	if err := c.get(ctx, "/corpCode.json", params, &resp); err != nil {
		return "", err
	}
	if resp.Status != "000" {
		return "", fmt.Errorf("corp code lookup for %s: %s (%s)", ticker, resp.Message, resp.Status)
	}

	c.mu.Lock()
	c.corpCodes[ticker] = resp.CorpCode
	c.mu.Unlock()

	return resp.CorpCode, nil
}

type statementResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	List    []struct {
		AccountName string `json:"account_nm"`
		Amount      string `json:"thstrm_amount"`
		Division    string `json:"fs_div"` // CFS consolidated, OFS standalone
	} `json:"list"`
}

// statementMetrics maps statement account names to metric names.
var statementMetrics = map[string]models.MetricName{
	"매출액":   models.MetricRevenue,
	"당기순이익": models.MetricNetIncome,
	"자산총계":  models.MetricTotalAssets,
	"자본총계":  models.MetricShareholdersEquity,
}

// FetchFundamentals implements interfaces.FundamentalsProvider. Only
// raw statement amounts from the latest annual report are available;
// ratios are left for other sources.
func (c *Client) FetchFundamentals(ctx context.Context, ticker string) (models.MetricSet, error) {
	corpCode, err := c.resolveCorpCode(ctx, ticker)
	if err != nil {
		return nil, err
	}

	// Annual reports for a fiscal year publish the following spring,
	// so the prior year may not have filed yet. Step back one more
	// year when DART returns nothing for it.
	year := time.Now().Year() - 1

	resp, err := c.fetchStatements(ctx, corpCode, year)
	if err != nil {
		return nil, err
	}
	if resp.Status == statusNoData || (resp.Status == "000" && len(resp.List) == 0) {
		year--
		c.logger.Debug().Str("ticker", ticker).Int("year", year).Msg("Prior year not filed, stepping back")
		resp, err = c.fetchStatements(ctx, corpCode, year)
		if err != nil {
			return nil, err
		}
	}
	if resp.Status != "000" {
		return nil, fmt.Errorf("statements for %s (%d): %s (%s)", ticker, year, resp.Message, resp.Status)
	}

	metrics := models.MetricSet{}
	for _, row := range resp.List {
		// Prefer consolidated rows; standalone fills only when no
		// consolidated figure was seen.
		name, ok := statementMetrics[strings.TrimSpace(row.AccountName)]
		if !ok {
			continue
		}
		if row.Division != "CFS" && metrics.Has(name) {
			continue
		}
		if v, ok := parseAmount(row.Amount); ok {
			metrics[name] = models.MetricValue{Value: v, Valid: true}
		}
	}

	return metrics, nil
}

// fetchStatements pulls the single-account annual statement rows for
// one business year.
func (c *Client) fetchStatements(ctx context.Context, corpCode string, year int) (*statementResponse, error) {
	params := url.Values{}
	params.Set("corp_code", corpCode)
	params.Set("bsns_year", strconv.Itoa(year))
	params.Set("reprt_code", reportAnnual)

	var resp statementResponse
	if err := c.get(ctx, "/fnlttSinglAcnt.json", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// parseAmount parses comma-grouped statement amounts.
func parseAmount(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
