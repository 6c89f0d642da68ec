// Package newsapi provides a client for the NewsAPI.org everything endpoint.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"alphatalk/internal/common"
	"alphatalk/internal/interfaces"
	"alphatalk/internal/models"
)

const (
	DefaultBaseURL   = "https://newsapi.org/v2"
	DefaultTimeout   = 15 * time.Second
	DefaultRateLimit = 1 // requests per second, free tier

	maxPageSize = 100
)

// Client fetches recent articles mentioning a ticker.
type Client struct {
	baseURL    string
	apiKey     string
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

// NewClient creates a new NewsAPI client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
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

var _ interfaces.NewsProvider = (*Client)(nil)

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("NewsAPI error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

type everythingResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		PublishedAt time.Time `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// FetchNews implements interfaces.NewsProvider
func (c *Client) FetchNews(ctx context.Context, ticker string, lookbackDays, limit int) ([]models.NewsArticle, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}

	params := url.Values{}
	params.Set("q", ticker)
	params.Set("from", time.Now().AddDate(0, 0, -lookbackDays).Format("2006-01-02"))
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(limit))

	reqURL := fmt.Sprintf("%s/everything?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	c.logger.Debug().Str("ticker", ticker).Int("lookback_days", lookbackDays).Msg("NewsAPI request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   "/everything",
		}
	}

	var payload everythingResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("news query for %s: %s", ticker, payload.Message)
	}

	articles := make([]models.NewsArticle, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		if a.Title == "" {
			continue
		}
		articles = append(articles, models.NewsArticle{
			Title:       a.Title,
			Body:        a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
			Sentiment:   models.Absent(),
		})
	}

	return articles, nil
}
