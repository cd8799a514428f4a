package news

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"insider-radar/internal/logger"
	"insider-radar/internal/trace"
)

// Analyzer scores article sentiment against a financial news lexicon.
// Scoring is deterministic, so the same articles always produce the
// same verdict.
type Analyzer struct{}

// NewAnalyzer creates a new sentiment analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Trade verbs (buy, sell, purchase, sale) are deliberately absent from
// both lists: coverage that merely describes the filings themselves
// should score neutral.
var positiveWords = map[string]bool{
	"accelerate": true, "accelerating": true, "approval": true, "approved": true,
	"beat": true, "beats": true, "boost": true, "boosted": true,
	"breakthrough": true, "bullish": true, "buyback": true, "dividend": true,
	"exceed": true, "exceeded": true, "expand": true, "expansion": true,
	"gain": true, "gained": true, "gains": true, "grew": true,
	"growth": true, "jump": true, "jumped": true, "momentum": true,
	"optimistic": true, "outperform": true, "outperformed": true, "profit": true,
	"profitable": true, "raise": true, "raised": true, "rally": true,
	"record": true, "rise": true, "rises": true, "rose": true,
	"soar": true, "soared": true, "strong": true, "stronger": true,
	"surge": true, "surged": true, "upbeat": true, "upgrade": true,
	"upgraded": true, "win": true, "wins": true, "won": true,
}

var negativeWords = map[string]bool{
	"bankruptcy": true, "bearish": true, "concern": true, "concerns": true,
	"cut": true, "cuts": true, "decline": true, "declined": true,
	"declines": true, "default": true, "downbeat": true, "downgrade": true,
	"downgraded": true, "drop": true, "dropped": true, "drops": true,
	"fall": true, "falls": true, "fell": true, "fraud": true,
	"investigation": true, "lawsuit": true, "layoff": true, "layoffs": true,
	"loss": true, "losses": true, "miss": true, "missed": true,
	"misses": true, "plunge": true, "plunged": true, "probe": true,
	"recall": true, "risk": true, "risks": true, "scandal": true,
	"shortfall": true, "sink": true, "sinks": true, "slowdown": true,
	"slump": true, "slumped": true, "tumble": true, "tumbled": true,
	"underperform": true, "warned": true, "warning": true, "weak": true,
	"weaker": true,
}

// AnalyzeArticle scores a single article. The score is the balance of
// positive and negative lexicon hits, normalized to [-1.0, 1.0], and the
// label flips from NEUTRAL at +/-0.1.
func (a *Analyzer) AnalyzeArticle(article Article) ArticleScore {
	result := ArticleScore{
		ArticleTitle: article.Title,
		URL:          article.URL,
		Source:       article.Source,
	}

	for _, word := range tokenize(article.Title + " " + article.Content) {
		if positiveWords[word] {
			result.PositiveHits++
		} else if negativeWords[word] {
			result.NegativeHits++
		}
	}

	hits := result.PositiveHits + result.NegativeHits
	if hits > 0 {
		result.Score = float64(result.PositiveHits-result.NegativeHits) / float64(hits)
	}

	switch {
	case result.Score >= 0.1:
		result.Sentiment = "POSITIVE"
	case result.Score <= -0.1:
		result.Sentiment = "NEGATIVE"
	default:
		result.Sentiment = "NEUTRAL"
	}

	return result
}

// AnalyzeArticles scores each article and aggregates the verdicts into
// an overall sentiment for the symbol.
func (a *Analyzer) AnalyzeArticles(ctx context.Context, symbol string, articles []Article) Sentiment {
	ctx, span := trace.StartSpan(ctx, "analyze-sentiment")
	defer span.End()

	if len(articles) == 0 {
		return Sentiment{
			Symbol:           symbol,
			OverallSentiment: "NEUTRAL",
			OverallScore:     0.0,
			ArticleCount:     0,
			Summary:          "No articles found for analysis",
			Recommendation:   "Insufficient data for recommendation",
			Confidence:       0.0,
			Timestamp:        time.Now().Unix(),
		}
	}

	scores := make([]ArticleScore, 0, len(articles))
	for _, article := range articles {
		scores = append(scores, a.AnalyzeArticle(article))
	}

	aggregated := a.aggregateScores(symbol, scores)

	logger.Info(ctx, "Sentiment analysis completed", "symbol", symbol,
		"articles", len(articles), "overall", aggregated.OverallSentiment,
		"score", aggregated.OverallScore)

	return aggregated
}

// aggregateScores combines per-article verdicts into overall sentiment.
func (a *Analyzer) aggregateScores(symbol string, scores []ArticleScore) Sentiment {
	totalScore := 0.0
	sentimentCounts := map[string]int{
		"POSITIVE": 0,
		"NEGATIVE": 0,
		"NEUTRAL":  0,
	}
	sourceBreakdown := map[string]SentimentCounts{}

	for _, score := range scores {
		totalScore += score.Score
		sentimentCounts[score.Sentiment]++

		counts := sourceBreakdown[score.Source]
		switch score.Sentiment {
		case "POSITIVE":
			counts.Positive++
		case "NEGATIVE":
			counts.Negative++
		default:
			counts.Neutral++
		}
		sourceBreakdown[score.Source] = counts
	}

	avgScore := totalScore / float64(len(scores))

	overallSentiment := "NEUTRAL"
	if sentimentCounts["POSITIVE"] > sentimentCounts["NEGATIVE"]*2 {
		overallSentiment = "POSITIVE"
	} else if sentimentCounts["NEGATIVE"] > sentimentCounts["POSITIVE"]*2 {
		overallSentiment = "NEGATIVE"
	} else if sentimentCounts["POSITIVE"] > 0 && sentimentCounts["NEGATIVE"] > 0 {
		overallSentiment = "MIXED"
	}

	summary := fmt.Sprintf("Analyzed %d articles. Sentiment breakdown: %d positive, %d negative, %d neutral.",
		len(scores), sentimentCounts["POSITIVE"], sentimentCounts["NEGATIVE"], sentimentCounts["NEUTRAL"])

	return Sentiment{
		Symbol:           symbol,
		OverallSentiment: overallSentiment,
		OverallScore:     avgScore,
		ArticleCount:     len(scores),
		Articles:         scores,
		SourceBreakdown:  sourceBreakdown,
		Summary:          summary,
		Recommendation:   a.generateRecommendation(overallSentiment, avgScore),
		Confidence:       a.calculateConfidence(len(scores), sentimentCounts),
		Timestamp:        time.Now().Unix(),
	}
}

// generateRecommendation suggests how to weigh the coverage against the
// filing activity it accompanies.
func (a *Analyzer) generateRecommendation(sentiment string, score float64) string {
	if score >= 0.5 {
		return "CORROBORATING: Strongly positive coverage, insider accumulation has press support"
	} else if score >= 0.3 {
		return "SUPPORTIVE: Generally positive coverage"
	} else if score <= -0.5 {
		return "CONTRARIAN: Strongly negative coverage, weigh insider activity against the news"
	} else if score <= -0.3 {
		return "CAUTIOUS: Negative coverage accompanies this activity"
	} else if sentiment == "MIXED" {
		return "UNCLEAR: Mixed coverage, rely on filing data alone"
	}
	return "NEUTRAL: Coverage carries no strong signal"
}

// calculateConfidence determines confidence level based on data quality.
func (a *Analyzer) calculateConfidence(articleCount int, sentimentCounts map[string]int) float64 {
	confidence := 0.0
	if articleCount >= 10 {
		confidence = 0.9
	} else if articleCount >= 5 {
		confidence = 0.7
	} else if articleCount >= 3 {
		confidence = 0.5
	} else {
		confidence = 0.3
	}

	// Mixed verdicts reduce confidence in the aggregate label.
	total := float64(sentimentCounts["POSITIVE"] + sentimentCounts["NEGATIVE"] + sentimentCounts["NEUTRAL"])
	if total > 0 {
		maxCount := float64(max(sentimentCounts["POSITIVE"], sentimentCounts["NEGATIVE"], sentimentCounts["NEUTRAL"]))
		confidence *= maxCount / total
	}

	return confidence
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
