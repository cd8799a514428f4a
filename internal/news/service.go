package news

import (
	"context"
	"sync"
	"time"

	"insider-radar/internal/logger"
	"insider-radar/internal/store"
)

// Service provides news sentiment analysis with caching
type Service struct {
	scraper  *Scraper
	analyzer *Analyzer
	cache    *sentimentCache
	cfg      *ServiceConfig
}

// ServiceConfig configures the news sentiment service
type ServiceConfig struct {
	MaxArticles    int           // Maximum articles to scrape per symbol
	MaxCompanies   int           // Maximum companies to analyze per run
	CacheDuration  time.Duration // How long to cache sentiment data
	ScraperTimeout time.Duration // Timeout for scraping operations
	Enabled        bool          // Whether sentiment analysis is enabled
}

// DefaultServiceConfig returns default configuration
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		MaxArticles:    10,
		MaxCompanies:   5,
		CacheDuration:  30 * time.Minute,
		ScraperTimeout: 30 * time.Second,
		Enabled:        true,
	}
}

// ConfigFromStore maps the sentiment section of the main config onto a
// service configuration.
func ConfigFromStore(cfg *store.Config) *ServiceConfig {
	if cfg == nil {
		return DefaultServiceConfig()
	}

	serviceCfg := DefaultServiceConfig()
	serviceCfg.Enabled = cfg.Sentiment.Enabled
	if cfg.Sentiment.MaxArticles > 0 {
		serviceCfg.MaxArticles = cfg.Sentiment.MaxArticles
	}
	if cfg.Sentiment.MaxCompanies > 0 {
		serviceCfg.MaxCompanies = cfg.Sentiment.MaxCompanies
	}
	if cfg.Sentiment.CacheMinutes > 0 {
		serviceCfg.CacheDuration = time.Duration(cfg.Sentiment.CacheMinutes) * time.Minute
	}
	return serviceCfg
}

// sentimentCache stores sentiment results temporarily
type sentimentCache struct {
	mu   sync.RWMutex
	data map[string]*cacheEntry
	ttl  time.Duration
}

type cacheEntry struct {
	sentiment Sentiment
	timestamp time.Time
}

// newSentimentCache creates a new cache
func newSentimentCache(ttl time.Duration) *sentimentCache {
	cache := &sentimentCache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
	}

	go cache.cleanupLoop()

	return cache
}

// get retrieves cached sentiment if valid
func (c *sentimentCache) get(symbol string) (Sentiment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[symbol]
	if !exists {
		return Sentiment{}, false
	}

	if time.Since(entry.timestamp) > c.ttl {
		return Sentiment{}, false
	}

	return entry.sentiment, true
}

// set stores sentiment in cache
func (c *sentimentCache) set(symbol string, sentiment Sentiment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[symbol] = &cacheEntry{
		sentiment: sentiment,
		timestamp: time.Now(),
	}
}

// cleanupLoop periodically removes expired entries
func (c *sentimentCache) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

// cleanup removes expired entries
func (c *sentimentCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for symbol, entry := range c.data {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.data, symbol)
		}
	}
}

// NewService creates a new news sentiment service
func NewService(serviceCfg *ServiceConfig) *Service {
	if serviceCfg == nil {
		serviceCfg = DefaultServiceConfig()
	}

	return &Service{
		scraper:  NewScraper(serviceCfg.ScraperTimeout),
		analyzer: NewAnalyzer(),
		cache:    newSentimentCache(serviceCfg.CacheDuration),
		cfg:      serviceCfg,
	}
}

// GetSentiment retrieves news sentiment for a symbol (cached or fresh)
func (s *Service) GetSentiment(ctx context.Context, symbol string) (Sentiment, error) {
	if !s.cfg.Enabled {
		return Sentiment{
			Symbol:           symbol,
			OverallSentiment: "NEUTRAL",
			Summary:          "Sentiment analysis disabled",
			Timestamp:        time.Now().Unix(),
		}, nil
	}

	if cached, ok := s.cache.get(symbol); ok {
		logger.Info(ctx, "Using cached sentiment", "symbol", symbol, "age_minutes",
			time.Since(time.Unix(cached.Timestamp, 0)).Minutes())
		return cached, nil
	}

	logger.Info(ctx, "Fetching fresh news sentiment", "symbol", symbol)
	sentiment, err := s.fetchFreshSentiment(ctx, symbol)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch sentiment", err, "symbol", symbol)
		// Return neutral sentiment on error rather than failing
		return Sentiment{
			Symbol:           symbol,
			OverallSentiment: "NEUTRAL",
			Summary:          "Failed to fetch sentiment: " + err.Error(),
			Confidence:       0.0,
			Timestamp:        time.Now().Unix(),
		}, nil
	}

	s.cache.set(symbol, sentiment)

	return sentiment, nil
}

// ForCompanies retrieves sentiment for a list of symbols, capped at the
// configured maximum to keep scraping time bounded.
func (s *Service) ForCompanies(ctx context.Context, symbols []string) map[string]Sentiment {
	results := make(map[string]Sentiment, len(symbols))

	if len(symbols) > s.cfg.MaxCompanies {
		logger.Info(ctx, "Capping sentiment lookups", "requested", len(symbols), "max", s.cfg.MaxCompanies)
		symbols = symbols[:s.cfg.MaxCompanies]
	}

	for _, symbol := range symbols {
		sentiment, err := s.GetSentiment(ctx, symbol)
		if err != nil {
			continue
		}
		results[symbol] = sentiment
	}

	return results
}

// fetchFreshSentiment scrapes and analyzes news for a symbol
func (s *Service) fetchFreshSentiment(ctx context.Context, symbol string) (Sentiment, error) {
	articles, err := s.scraper.ScrapeNews(ctx, symbol, s.cfg.MaxArticles)
	if err != nil {
		return Sentiment{}, err
	}

	// If no articles found, try Google News as fallback
	if len(articles) == 0 {
		logger.Info(ctx, "No articles from primary sources, trying Google News", "symbol", symbol)
		articles, err = s.scraper.ScrapeGoogleNews(ctx, symbol, s.cfg.MaxArticles)
		if err != nil {
			logger.ErrorWithErr(ctx, "Google News fallback failed", err, "symbol", symbol)
		}
	}

	return s.analyzer.AnalyzeArticles(ctx, symbol, articles), nil
}

// RefreshSentiment forces a refresh of sentiment data (bypasses cache)
func (s *Service) RefreshSentiment(ctx context.Context, symbol string) (Sentiment, error) {
	sentiment, err := s.fetchFreshSentiment(ctx, symbol)
	if err != nil {
		return Sentiment{}, err
	}

	s.cache.set(symbol, sentiment)
	return sentiment, nil
}

// ClearCache removes all cached sentiment data
func (s *Service) ClearCache() {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	s.cache.data = make(map[string]*cacheEntry)
}

// GetCachedSymbols returns list of symbols with cached sentiment
func (s *Service) GetCachedSymbols() []string {
	s.cache.mu.RLock()
	defer s.cache.mu.RUnlock()

	symbols := make([]string, 0, len(s.cache.data))
	for symbol := range s.cache.data {
		symbols = append(symbols, symbol)
	}
	return symbols
}
