// Package gemini provides a client for the Google Gemini API
package gemini

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"alphatalk/internal/common"
	"alphatalk/internal/interfaces"
)

const (
	DefaultModel = "gemini-3-flash-preview"

	sentimentSystemPrompt = `You rate financial news sentiment. Respond with a single number between -1.0 (very bearish) and 1.0 (very bullish). No other text.`
)

// Client implements text synthesis and sentiment scoring on Gemini.
type Client struct {
	client *genai.Client
	model  string
	logger *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client: genaiClient,
		model:  DefaultModel,
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

var (
	_ interfaces.SynthesisClient = (*Client)(nil)
	_ interfaces.SentimentOracle = (*Client)(nil)
)

// Complete implements interfaces.SynthesisClient
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	c.logger.Debug().Str("model", c.model).Int("prompt_len", len(userPrompt)).Msg("Generating content")

	var config *genai.GenerateContentConfig
	if systemPrompt != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		}
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(userPrompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractTextFromResponse(result)
}

// ScoreSentiment implements interfaces.SentimentOracle. Model output
// is clamped to [-1, 1]; unparseable replies are an error, never a
// silent neutral.
func (c *Client) ScoreSentiment(ctx context.Context, text string) (float64, error) {
	reply, err := c.Complete(ctx, sentimentSystemPrompt, text)
	if err != nil {
		return 0, err
	}

	score, err := strconv.ParseFloat(strings.TrimSpace(reply), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable sentiment reply %q: %w", reply, err)
	}

	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}
	return score, nil
}

// extractTextFromResponse extracts text from a generate content response
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}

	return text, nil
}
