package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter paces calls to an external service.
type Limiter interface {
	Wait(ctx context.Context) error
}

// TokenBucket allows bursts of up to maxTokens calls, refilling one token
// per refill interval. Safe for concurrent use.
type TokenBucket struct {
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
	mu         sync.Mutex
}

func NewTokenBucket(maxTokens int, refillRate time.Duration) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or ctx is done.
func (t *TokenBucket) Wait(ctx context.Context) error {
	t.mu.Lock()
	t.refill()

	for t.tokens <= 0 {
		t.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.refillRate):
		}

		t.mu.Lock()
		t.refill()
	}

	t.tokens--
	t.mu.Unlock()

	return nil
}

func (t *TokenBucket) refill() {
	elapsed := time.Since(t.lastRefill)
	tokensToAdd := int(elapsed / t.refillRate)

	if tokensToAdd > 0 {
		t.tokens += tokensToAdd
		if t.tokens > t.maxTokens {
			t.tokens = t.maxTokens
		}
		t.lastRefill = time.Now()
	}
}

// Unlimited performs no pacing. Used in tests and when no rate limit is
// configured.
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}
