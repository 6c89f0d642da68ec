package analysis

import (
	"fmt"
	"strings"

	"alphatalk/internal/models"
)

// compositeScore grades the fused metrics on a 0-6 scale. ROE earns a
// tier (2 points above 15%, 1 above 10%), improving earnings earns 2,
// expanding assets and a low debt load earn 1 each. An absent metric
// contributes nothing.
func compositeScore(metrics models.MetricSet) (int, []string) {
	score := 0
	var strengths []string

	if roe := metrics.Get(models.MetricROE); roe.Valid {
		switch {
		case roe.Value > 15:
			score += 2
			strengths = append(strengths, "high ROE")
		case roe.Value > 10:
			score++
			strengths = append(strengths, "solid ROE")
		}
	}
	if eg := metrics.Get(models.MetricEarningsGrowth); eg.Valid && eg.Value > 0 {
		score += 2
		strengths = append(strengths, "improving earnings")
	}
	if ag := metrics.Get(models.MetricAssetGrowth); ag.Valid && ag.Value > 5 {
		score++
		strengths = append(strengths, "asset growth")
	}
	if debt := metrics.Get(models.MetricDebtRatio); debt.Valid && debt.Value <= 50 {
		score++
		strengths = append(strengths, "low rate sensitivity")
	}

	return score, strengths
}

// compositeGrade labels a composite score.
func compositeGrade(score int) string {
	switch {
	case score >= 5:
		return "excellent"
	case score >= 3:
		return "good"
	case score >= 2:
		return "fair"
	default:
		return "needs caution"
	}
}

// buildFundamentalSection renders the fundamental_text block from a
// fusion result.
func buildFundamentalSection(result *models.FusionResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Fundamental Analysis: %s (%s)\n", result.Ticker, result.Market)
	fmt.Fprintf(&sb, "Data quality: %.0f/100 from [%s]\n", result.QualityScore, strings.Join(result.SourcesUsed, ", "))
	if len(result.MissingCritical) > 0 {
		names := make([]string, len(result.MissingCritical))
		for i, m := range result.MissingCritical {
			names[i] = string(m)
		}
		fmt.Fprintf(&sb, "Missing: %s\n", strings.Join(names, ", "))
	}

	sb.WriteString("\nMetrics:\n")
	for _, name := range models.AllMetrics {
		fmt.Fprintf(&sb, "- %s: %s\n", name, result.Metrics.Get(name).Format(2))
	}

	if eg := result.Metrics.Get(models.MetricEarningsGrowth); eg.Valid {
		momentum := "declining"
		if eg.Value > 0 {
			momentum = "improving"
		}
		fmt.Fprintf(&sb, "Earnings momentum %s (%.1f%% vs prior period)\n", momentum, eg.Value)
	}

	if growth := result.Metrics.Get(models.MetricAssetGrowth); growth.Valid {
		trend := "contracting"
		if growth.Value > 0 {
			trend = "expanding"
		}
		fmt.Fprintf(&sb, "Asset base %s (%.1f%% YoY)\n", trend, growth.Value)
	}

	score, strengths := compositeScore(result.Metrics)
	fmt.Fprintf(&sb, "\nFundamental score: %d/6 (%s)\n", score, compositeGrade(score))
	if len(strengths) > 0 {
		fmt.Fprintf(&sb, "Key strengths: %s\n", strings.Join(strengths, ", "))
	} else {
		sb.WriteString("Key strengths: none\n")
	}

	return sb.String()
}
