package wom

import (
	"context"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER
// ══════════════════════════════════════════════════════════════════════════════

// RateLimiterConfig configures the token-bucket limiter. WOM allows 20
// requests per minute without an API key and 100 with one.
type RateLimiterConfig struct {
	// RequestsPerMinute is the sustained request rate.
	RequestsPerMinute int

	// Burst is the maximum number of requests allowed at once.
	Burst int
}

// DefaultRateLimiterConfig returns the anonymous-tier limits.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerMinute: 20,
		Burst:             5,
	}
}

// KeyedRateLimiterConfig returns the API-key-tier limits.
func KeyedRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerMinute: 100,
		Burst:             10,
	}
}

// RateLimiter is a token bucket that additionally honors server-side 429
// responses by pausing all requests until the advertised retry time.
type RateLimiter struct {
	mu         sync.Mutex
	config     RateLimiterConfig
	tokens     float64
	lastRefill time.Time
	pausedTil  time.Time
}

// NewRateLimiter creates a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.RequestsPerMinute <= 0 {
		config = DefaultRateLimiterConfig()
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	return &RateLimiter{
		config:     config,
		tokens:     float64(config.Burst),
		lastRefill: time.Now(),
	}
}

// Allow blocks until a token is available or the context is done.
func (r *RateLimiter) Allow(ctx context.Context) error {
	for {
		wait := r.reserve()
		if wait <= 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// reserve takes a token if available, otherwise returns how long to wait
// before trying again.
func (r *RateLimiter) reserve() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if now.Before(r.pausedTil) {
		return r.pausedTil.Sub(now)
	}

	refillRate := float64(r.config.RequestsPerMinute) / 60.0
	r.tokens += now.Sub(r.lastRefill).Seconds() * refillRate
	if r.tokens > float64(r.config.Burst) {
		r.tokens = float64(r.config.Burst)
	}
	r.lastRefill = now

	if r.tokens >= 1 {
		r.tokens--
		return 0
	}
	return time.Duration((1-r.tokens)/refillRate*float64(time.Second)) + time.Millisecond
}

// RecordRateLimitHit pauses the limiter after a 429 response.
func (r *RateLimiter) RecordRateLimitHit(retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = time.Minute
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	until := time.Now().Add(retryAfter)
	if until.After(r.pausedTil) {
		r.pausedTil = until
	}
	r.tokens = 0
}

// Reset restores a full bucket and clears any pause.
func (r *RateLimiter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens = float64(r.config.Burst)
	r.lastRefill = time.Now()
	r.pausedTil = time.Time{}
}
