package datasource

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements token bucket rate limiting. Filing providers ban
// clients that hammer them; every outbound request goes through one of these.
type RateLimiter struct {
	tokens         int
	maxTokens      int
	refillRate     time.Duration
	lastRefillTime time.Time
	mu             sync.Mutex
}

// NewRateLimiter creates a new rate limiter.
// maxTokens is the bucket capacity; refillRate is how often one token is
// added (6s = 10 requests/minute).
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:         maxTokens,
		maxTokens:      maxTokens,
		refillRate:     refillRate,
		lastRefillTime: time.Now(),
	}
}

// Wait blocks until a token is available or the context is done
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if rl.tryAcquire() {
				return nil
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (rl *RateLimiter) tryAcquire() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastRefillTime)
	tokensToAdd := int(elapsed / rl.refillRate)

	if tokensToAdd > 0 {
		rl.tokens += tokensToAdd
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefillTime = now
	}

	if rl.tokens > 0 {
		rl.tokens--
		return true
	}

	return false
}

// MultiRateLimiter holds one limiter per provider
type MultiRateLimiter struct {
	limiters map[string]*RateLimiter
	mu       sync.RWMutex
}

// NewMultiRateLimiter creates a new multi-provider rate limiter
func NewMultiRateLimiter() *MultiRateLimiter {
	return &MultiRateLimiter{
		limiters: make(map[string]*RateLimiter),
	}
}

// AddLimiter registers a limiter for a provider
func (mrl *MultiRateLimiter) AddLimiter(provider string, maxTokens int, refillRate time.Duration) {
	mrl.mu.Lock()
	defer mrl.mu.Unlock()

	mrl.limiters[provider] = NewRateLimiter(maxTokens, refillRate)
}

// Wait blocks on the provider's limiter. Providers without a registered
// limiter pass through immediately.
func (mrl *MultiRateLimiter) Wait(ctx context.Context, provider string) error {
	mrl.mu.RLock()
	limiter, ok := mrl.limiters[provider]
	mrl.mu.RUnlock()

	if !ok {
		return nil
	}

	return limiter.Wait(ctx)
}
