package util

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a token-bucket rate limiter that replenishes tokens
// at a fixed rate. The bucket holds at most one token, so consecutive Wait
// calls are spaced by at least 1/rate.
type RateLimiter struct {
	rate     float64 // tokens per second
	tokens   float64
	lastTime time.Time
	mu       sync.Mutex
	now      func() time.Time
}

// NewIntervalLimiter creates a RateLimiter that spaces operations at least
// interval apart. The first Wait returns immediately. A non-positive
// interval yields nil, which Wait treats as unlimited.
func NewIntervalLimiter(interval time.Duration) *RateLimiter {
	if interval <= 0 {
		return nil
	}
	return newRateLimiter(1/interval.Seconds(), time.Now)
}

func newRateLimiter(rate float64, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		rate:     rate,
		tokens:   1, // start with one token available
		lastTime: now(),
		now:      now,
	}
}

// Wait blocks until a rate-limit token is available or the context is
// cancelled. A nil RateLimiter never blocks.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return ctx.Err()
	}
	for {
		rl.mu.Lock()
		now := rl.now()
		elapsed := now.Sub(rl.lastTime).Seconds()
		rl.tokens += elapsed * rl.rate
		if rl.tokens > 1 {
			rl.tokens = 1
		}
		rl.lastTime = now

		if rl.tokens >= 1 {
			rl.tokens -= 1
			rl.mu.Unlock()
			return nil
		}
		wait := time.Duration((1 - rl.tokens) / rl.rate * float64(time.Second))
		rl.mu.Unlock()

		if wait > 50*time.Millisecond {
			wait = 50 * time.Millisecond
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
