// Package news assembles the news research section of an analysis.
package news

import (
	"context"
	"fmt"
	"strings"

	"alphatalk/internal/common"
	"alphatalk/internal/interfaces"
	"alphatalk/internal/models"
)

const (
	// DefaultLookbackDays bounds how far back articles are pulled.
	DefaultLookbackDays = 7

	// maxScored caps per-article sentiment calls per run; the model
	// is the slow, rate-limited part.
	maxScored = 10
)

// Service implements interfaces.NewsService.
type Service struct {
	provider interfaces.NewsProvider
	oracle   interfaces.SentimentOracle
	logger   *common.Logger

	lookbackDays int
}

// ServiceOption configures the service.
type ServiceOption func(*Service)

// WithLookbackDays sets how far back articles are pulled. Values under
// one day keep the default.
func WithLookbackDays(days int) ServiceOption {
	return func(s *Service) {
		if days > 0 {
			s.lookbackDays = days
		}
	}
}

// NewService creates a news research service.
func NewService(provider interfaces.NewsProvider, oracle interfaces.SentimentOracle, logger *common.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		provider:     provider,
		oracle:       oracle,
		logger:       logger,
		lookbackDays: DefaultLookbackDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ interfaces.NewsService = (*Service)(nil)

// Unavailable is the NewsService used when no news provider is
// configured. Sections state so instead of failing pipelines.
type Unavailable struct{}

// NewUnavailable creates the stub service.
func NewUnavailable() *Unavailable {
	return &Unavailable{}
}

var _ interfaces.NewsService = (*Unavailable)(nil)

func (u *Unavailable) Research(ctx context.Context, ticker string) (string, error) {
	return fmt.Sprintf("News Research: %s\nNews provider not configured.", ticker), nil
}

// Research implements interfaces.NewsService. No coverage is a normal
// outcome, not an error; a provider failure is.
func (s *Service) Research(ctx context.Context, ticker string) (string, error) {
	articles, err := s.provider.FetchNews(ctx, ticker, s.lookbackDays, maxScored)
	if err != nil {
		return "", fmt.Errorf("news fetch for %s: %w", ticker, err)
	}

	if len(articles) == 0 {
		return fmt.Sprintf("No news coverage found for %s in the last %d days.", ticker, s.lookbackDays), nil
	}

	scored := s.scoreArticles(ctx, articles)
	return formatSection(ticker, articles, scored), nil
}

// scoreArticles runs the sentiment oracle over each article. Scoring
// failures leave that article's sentiment absent and the run continues.
func (s *Service) scoreArticles(ctx context.Context, articles []models.NewsArticle) int {
	scored := 0
	for i := range articles {
		text := articles[i].Title
		if articles[i].Body != "" {
			text += "\n" + articles[i].Body
		}

		score, err := s.oracle.ScoreSentiment(ctx, text)
		if err != nil {
			s.logger.Warn().Str("title", articles[i].Title).Err(err).Msg("Sentiment scoring failed")
			continue
		}
		articles[i].Sentiment = models.Num(score)
		scored++
	}
	return scored
}

// formatSection renders the news_text block persisted on the record.
func formatSection(ticker string, articles []models.NewsArticle, scored int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "News Research: %s\n", ticker)
	fmt.Fprintf(&sb, "Articles reviewed: %d\n", len(articles))

	if scored > 0 {
		sum := 0.0
		for _, a := range articles {
			if a.Sentiment.Valid {
				sum += a.Sentiment.Value
			}
		}
		avg := sum / float64(scored)
		fmt.Fprintf(&sb, "Overall sentiment: %s (%.2f)\n", models.SentimentLabel(avg), avg)
	} else {
		sb.WriteString("Overall sentiment: unscored\n")
	}

	sb.WriteString("\nHeadlines:\n")
	for _, a := range articles {
		label := "unscored"
		if a.Sentiment.Valid {
			label = fmt.Sprintf("%s %.2f", models.SentimentLabel(a.Sentiment.Value), a.Sentiment.Value)
		}
		fmt.Fprintf(&sb, "- [%s] %s (%s, %s)\n", label, a.Title, a.Source, a.PublishedAt.Format("2006-01-02"))
	}

	return sb.String()
}
