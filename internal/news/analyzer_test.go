package news

import (
	"context"
	"math"
	"strings"
	"testing"
)

func TestAnalyzeArticlePositive(t *testing.T) {
	a := NewAnalyzer()

	article := Article{
		Title:  "AAPL shares surge to record high as profit beats expectations",
		Source: "Finviz",
		Symbol: "AAPL",
	}

	score := a.AnalyzeArticle(article)

	if score.PositiveHits != 4 {
		t.Errorf("Expected 4 positive hits, got %d", score.PositiveHits)
	}
	if score.NegativeHits != 0 {
		t.Errorf("Expected 0 negative hits, got %d", score.NegativeHits)
	}
	if score.Score != 1.0 {
		t.Errorf("Expected score 1.0, got %f", score.Score)
	}
	if score.Sentiment != "POSITIVE" {
		t.Errorf("Expected POSITIVE sentiment, got %s", score.Sentiment)
	}
}

func TestAnalyzeArticleNegative(t *testing.T) {
	a := NewAnalyzer()

	article := Article{
		Title:  "Lawsuit and layoffs deepen quarterly losses",
		Source: "MarketWatch",
		Symbol: "TSLA",
	}

	score := a.AnalyzeArticle(article)

	if score.NegativeHits != 3 {
		t.Errorf("Expected 3 negative hits, got %d", score.NegativeHits)
	}
	if score.Score != -1.0 {
		t.Errorf("Expected score -1.0, got %f", score.Score)
	}
	if score.Sentiment != "NEGATIVE" {
		t.Errorf("Expected NEGATIVE sentiment, got %s", score.Sentiment)
	}
}

func TestAnalyzeArticleNeutral(t *testing.T) {
	a := NewAnalyzer()

	article := Article{
		Title:  "Company schedules annual shareholder meeting",
		Source: "YahooFinance",
		Symbol: "MSFT",
	}

	score := a.AnalyzeArticle(article)

	if score.PositiveHits != 0 || score.NegativeHits != 0 {
		t.Errorf("Expected no lexicon hits, got %d positive and %d negative",
			score.PositiveHits, score.NegativeHits)
	}
	if score.Score != 0.0 {
		t.Errorf("Expected score 0.0, got %f", score.Score)
	}
	if score.Sentiment != "NEUTRAL" {
		t.Errorf("Expected NEUTRAL sentiment, got %s", score.Sentiment)
	}
}

func TestAnalyzeArticleLeaning(t *testing.T) {
	a := NewAnalyzer()

	article := Article{
		Title:  "Shares tumble after earnings miss despite dividend",
		Source: "Finviz",
		Symbol: "NVDA",
	}

	score := a.AnalyzeArticle(article)

	if score.PositiveHits != 1 {
		t.Errorf("Expected 1 positive hit, got %d", score.PositiveHits)
	}
	if score.NegativeHits != 2 {
		t.Errorf("Expected 2 negative hits, got %d", score.NegativeHits)
	}
	want := -1.0 / 3.0
	if math.Abs(score.Score-want) > 1e-9 {
		t.Errorf("Expected score %f, got %f", want, score.Score)
	}
	if score.Sentiment != "NEGATIVE" {
		t.Errorf("Expected NEGATIVE sentiment, got %s", score.Sentiment)
	}
}

func TestAnalyzeArticleCaseAndPunctuation(t *testing.T) {
	a := NewAnalyzer()

	article := Article{
		Title:   "RECORD SURGE in shares",
		Content: "Profit, growth; momentum!",
		Source:  "Finviz",
		Symbol:  "AAPL",
	}

	score := a.AnalyzeArticle(article)

	if score.PositiveHits != 5 {
		t.Errorf("Expected 5 positive hits across title and content, got %d", score.PositiveHits)
	}
	if score.Sentiment != "POSITIVE" {
		t.Errorf("Expected POSITIVE sentiment, got %s", score.Sentiment)
	}
}

func TestAnalyzeArticlesEmpty(t *testing.T) {
	a := NewAnalyzer()
	ctx := context.Background()

	sentiment := a.AnalyzeArticles(ctx, "AAPL", nil)

	if sentiment.OverallSentiment != "NEUTRAL" {
		t.Errorf("Expected NEUTRAL sentiment, got %s", sentiment.OverallSentiment)
	}
	if sentiment.ArticleCount != 0 {
		t.Errorf("Expected 0 articles, got %d", sentiment.ArticleCount)
	}
	if sentiment.Summary != "No articles found for analysis" {
		t.Errorf("Unexpected summary: %s", sentiment.Summary)
	}
	if sentiment.Recommendation != "Insufficient data for recommendation" {
		t.Errorf("Unexpected recommendation: %s", sentiment.Recommendation)
	}
	if sentiment.Confidence != 0.0 {
		t.Errorf("Expected confidence 0.0, got %f", sentiment.Confidence)
	}
}

func TestAnalyzeArticlesAggregation(t *testing.T) {
	a := NewAnalyzer()
	ctx := context.Background()

	articles := []Article{
		{Title: "Strong growth and record profit", Source: "Finviz", Symbol: "AAPL"},
		{Title: "Shares rally on upgrade", Source: "Finviz", Symbol: "AAPL"},
		{Title: "Dividend raised as momentum builds", Source: "YahooFinance", Symbol: "AAPL"},
		{Title: "Quarterly report scheduled for Thursday", Source: "MarketWatch", Symbol: "AAPL"},
	}

	sentiment := a.AnalyzeArticles(ctx, "AAPL", articles)

	if sentiment.OverallSentiment != "POSITIVE" {
		t.Errorf("Expected POSITIVE sentiment, got %s", sentiment.OverallSentiment)
	}
	if sentiment.OverallScore != 0.75 {
		t.Errorf("Expected overall score 0.75, got %f", sentiment.OverallScore)
	}
	if sentiment.ArticleCount != 4 {
		t.Errorf("Expected 4 articles, got %d", sentiment.ArticleCount)
	}

	wantSummary := "Analyzed 4 articles. Sentiment breakdown: 3 positive, 0 negative, 1 neutral."
	if sentiment.Summary != wantSummary {
		t.Errorf("Expected summary %q, got %q", wantSummary, sentiment.Summary)
	}

	finviz := sentiment.SourceBreakdown["Finviz"]
	if finviz.Positive != 2 || finviz.Negative != 0 || finviz.Neutral != 0 {
		t.Errorf("Unexpected Finviz breakdown: %+v", finviz)
	}
	marketwatch := sentiment.SourceBreakdown["MarketWatch"]
	if marketwatch.Neutral != 1 {
		t.Errorf("Expected 1 neutral MarketWatch article, got %+v", marketwatch)
	}

	// 4 articles gives base confidence 0.5, scaled by 3/4 consistency
	if sentiment.Confidence != 0.375 {
		t.Errorf("Expected confidence 0.375, got %f", sentiment.Confidence)
	}
}

func TestAnalyzeArticlesMixed(t *testing.T) {
	a := NewAnalyzer()
	ctx := context.Background()

	articles := []Article{
		{Title: "Profit surge continues", Source: "Finviz", Symbol: "TSLA"},
		{Title: "Record momentum", Source: "Finviz", Symbol: "TSLA"},
		{Title: "Lawsuit looms", Source: "YahooFinance", Symbol: "TSLA"},
		{Title: "Layoffs announced", Source: "MarketWatch", Symbol: "TSLA"},
	}

	sentiment := a.AnalyzeArticles(ctx, "TSLA", articles)

	if sentiment.OverallSentiment != "MIXED" {
		t.Errorf("Expected MIXED sentiment, got %s", sentiment.OverallSentiment)
	}
	if sentiment.OverallScore != 0.0 {
		t.Errorf("Expected overall score 0.0, got %f", sentiment.OverallScore)
	}
	if !strings.HasPrefix(sentiment.Recommendation, "UNCLEAR") {
		t.Errorf("Expected UNCLEAR recommendation, got %s", sentiment.Recommendation)
	}
}

func TestGenerateRecommendation(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		sentiment string
		score     float64
		prefix    string
	}{
		{"POSITIVE", 0.6, "CORROBORATING"},
		{"POSITIVE", 0.35, "SUPPORTIVE"},
		{"NEGATIVE", -0.6, "CONTRARIAN"},
		{"NEGATIVE", -0.35, "CAUTIOUS"},
		{"MIXED", 0.0, "UNCLEAR"},
		{"NEUTRAL", 0.05, "NEUTRAL"},
	}

	for _, tt := range tests {
		got := a.generateRecommendation(tt.sentiment, tt.score)
		if !strings.HasPrefix(got, tt.prefix) {
			t.Errorf("generateRecommendation(%s, %f): expected prefix %s, got %s",
				tt.sentiment, tt.score, tt.prefix, got)
		}
	}
}

func TestCalculateConfidence(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		name   string
		count  int
		counts map[string]int
		want   float64
	}{
		{"many consistent", 10, map[string]int{"POSITIVE": 10}, 0.9},
		{"few consistent", 1, map[string]int{"NEUTRAL": 1}, 0.3},
		{"five split", 5, map[string]int{"POSITIVE": 3, "NEGATIVE": 1, "NEUTRAL": 1}, 0.42},
		{"three way tie", 3, map[string]int{"POSITIVE": 1, "NEGATIVE": 1, "NEUTRAL": 1}, 0.5 / 3.0},
	}

	for _, tt := range tests {
		got := a.calculateConfidence(tt.count, tt.counts)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: expected confidence %f, got %f", tt.name, tt.want, got)
		}
	}
}
