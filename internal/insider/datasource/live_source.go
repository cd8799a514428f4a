package datasource

import (
	"context"
	"encoding/json"
	"time"

	"insider-radar/internal/insider"
	"insider-radar/internal/interfaces"
	"insider-radar/internal/logger"
)

// LiveSource fetches filings from a real provider, with a file cache and
// per-provider rate limiting in front. An optional fallback provider covers
// primary outages.
type LiveSource struct {
	primary  interfaces.FilingSource
	fallback interfaces.FilingSource
	cache    *Cache
	limiter  *MultiRateLimiter
}

// LiveSourceConfig holds the knobs shared by all providers
type LiveSourceConfig struct {
	CacheDir       string
	CacheTTL       time.Duration
	RequestsPerMin int
}

// NewLiveSource wraps primary (and optionally fallback) with caching and
// rate limiting. A nil config uses conservative defaults.
func NewLiveSource(primary, fallback interfaces.FilingSource, config *LiveSourceConfig) *LiveSource {
	if config == nil {
		config = &LiveSourceConfig{
			CacheDir:       ".cache/filings",
			CacheTTL:       1 * time.Hour,
			RequestsPerMin: 10,
		}
	}
	if config.RequestsPerMin <= 0 {
		config.RequestsPerMin = 10
	}

	refill := time.Minute / time.Duration(config.RequestsPerMin)

	limiter := NewMultiRateLimiter()
	limiter.AddLimiter(primary.Name(), config.RequestsPerMin, refill)
	if fallback != nil {
		limiter.AddLimiter(fallback.Name(), config.RequestsPerMin, refill)
	}

	return &LiveSource{
		primary:  primary,
		fallback: fallback,
		cache:    NewCache(config.CacheDir, config.CacheTTL),
		limiter:  limiter,
	}
}

// FetchFilings retrieves raw filings for the window, trying the cache, then
// the primary provider, then the fallback.
func (l *LiveSource) FetchFilings(ctx context.Context, from, to time.Time) ([]insider.RawFiling, error) {
	// Hour precision keeps the key stable across polls within one cache TTL.
	cacheKey := MakeKey("filings", from.Format("2006-01-02T15"), to.Format("2006-01-02T15"))

	if cached, ok := l.cache.Get(cacheKey); ok {
		var filings []insider.RawFiling
		if err := json.Unmarshal(cached, &filings); err == nil {
			logger.Info(ctx, "Returning cached filings", "count", len(filings))
			return filings, nil
		}
	}

	filings, err := l.fetchFrom(ctx, l.primary, from, to)
	if err != nil && l.fallback != nil {
		logger.Warn(ctx, "Primary filing provider failed, trying fallback",
			"primary", l.primary.Name(),
			"fallback", l.fallback.Name(),
			"error", err)
		filings, err = l.fetchFrom(ctx, l.fallback, from, to)
	}
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(filings); err == nil {
		l.cache.Set(cacheKey, data)
	}

	return filings, nil
}

func (l *LiveSource) fetchFrom(ctx context.Context, provider interfaces.FilingSource, from, to time.Time) ([]insider.RawFiling, error) {
	if err := l.limiter.Wait(ctx, provider.Name()); err != nil {
		return nil, err
	}

	filings, err := provider.FetchFilings(ctx, from, to)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Fetched filings", "provider", provider.Name(), "count", len(filings))
	return filings, nil
}

// Name reports the primary provider's name.
func (l *LiveSource) Name() string {
	return l.primary.Name()
}

// ClearCache removes all cached responses
func (l *LiveSource) ClearCache() error {
	return l.cache.Clear()
}

// CleanupExpiredCache removes expired cache entries
func (l *LiveSource) CleanupExpiredCache() error {
	return l.cache.CleanupExpired()
}
