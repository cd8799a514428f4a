package news

// Article is a single scraped news article about a company.
type Article struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content,omitempty"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at,omitempty"`
	Symbol      string `json:"symbol"`
}

// ArticleScore is the sentiment verdict for one article.
type ArticleScore struct {
	ArticleTitle string  `json:"article_title"`
	URL          string  `json:"url"`
	Source       string  `json:"source"`
	Sentiment    string  `json:"sentiment"`
	Score        float64 `json:"score"`
	PositiveHits int     `json:"positive_hits"`
	NegativeHits int     `json:"negative_hits"`
}

// SentimentCounts tallies article verdicts for one news source.
type SentimentCounts struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// Sentiment is the aggregated news sentiment for a symbol.
type Sentiment struct {
	Symbol           string                     `json:"symbol"`
	OverallSentiment string                     `json:"overall_sentiment"`
	OverallScore     float64                    `json:"overall_score"`
	ArticleCount     int                        `json:"article_count"`
	Articles         []ArticleScore             `json:"articles,omitempty"`
	SourceBreakdown  map[string]SentimentCounts `json:"source_breakdown,omitempty"`
	Summary          string                     `json:"summary"`
	Recommendation   string                     `json:"recommendation"`
	Confidence       float64                    `json:"confidence"`
	Timestamp        int64                      `json:"timestamp"`
}
