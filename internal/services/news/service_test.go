package news

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alphatalk/internal/common"
	"alphatalk/internal/models"
)

type mockNewsProvider struct {
	articles []models.NewsArticle
	err      error
}

func (m *mockNewsProvider) FetchNews(ctx context.Context, ticker string, lookbackDays, limit int) ([]models.NewsArticle, error) {
	return m.articles, m.err
}

type mockOracle struct {
	scores map[string]float64
	err    error
	calls  int
}

func (m *mockOracle) ScoreSentiment(ctx context.Context, text string) (float64, error) {
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	for key, score := range m.scores {
		if len(text) >= len(key) && text[:len(key)] == key {
			return score, nil
		}
	}
	return 0, nil
}

func article(title string) models.NewsArticle {
	return models.NewsArticle{
		Title:       title,
		Source:      "Reuters",
		PublishedAt: time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
		Sentiment:   models.Absent(),
	}
}

func TestResearchNoCoverage(t *testing.T) {
	svc := NewService(&mockNewsProvider{}, &mockOracle{}, common.NewSilentLogger())

	section, err := svc.Research(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Contains(t, section, "No news coverage found for AAPL")
}

func TestResearchProviderFailure(t *testing.T) {
	svc := NewService(&mockNewsProvider{err: errors.New("quota exceeded")}, &mockOracle{}, common.NewSilentLogger())

	_, err := svc.Research(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestResearchScoresAndAggregates(t *testing.T) {
	provider := &mockNewsProvider{articles: []models.NewsArticle{
		article("Record quarterly earnings"),
		article("Factory recall announced"),
	}}
	oracle := &mockOracle{scores: map[string]float64{
		"Record quarterly earnings": 0.8,
		"Factory recall announced":  -0.4,
	}}

	svc := NewService(provider, oracle, common.NewSilentLogger())
	section, err := svc.Research(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, 2, oracle.calls)
	assert.Contains(t, section, "Articles reviewed: 2")
	assert.Contains(t, section, "Overall sentiment: positive (0.20)")
	assert.Contains(t, section, "Record quarterly earnings")
	assert.Contains(t, section, "negative -0.40")
}

func TestResearchOracleFailureLeavesArticlesUnscored(t *testing.T) {
	provider := &mockNewsProvider{articles: []models.NewsArticle{
		article("Some headline"),
	}}
	oracle := &mockOracle{err: errors.New("model unavailable")}

	svc := NewService(provider, oracle, common.NewSilentLogger())
	section, err := svc.Research(context.Background(), "AAPL")
	require.NoError(t, err, "scoring failure must not fail the section")

	assert.Contains(t, section, "Overall sentiment: unscored")
	assert.Contains(t, section, "[unscored] Some headline")
}
