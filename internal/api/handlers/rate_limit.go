package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/providers"
	"github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/observability"
)

// SubmitLimiter caps diagnosis submissions per client within a window.
// With a cache the count is shared across instances; without one it is kept
// in process memory.
type SubmitLimiter struct {
	limit  int
	window time.Duration
	cache  providers.CacheProvider
	local  *localRateLimiter
}

// NewSubmitLimiter creates a limiter. A non-positive limit disables it.
func NewSubmitLimiter(limit int, window time.Duration, cache providers.CacheProvider) *SubmitLimiter {
	if window <= 0 {
		window = time.Hour
	}
	return &SubmitLimiter{
		limit:  limit,
		window: window,
		cache:  cache,
		local:  newLocalRateLimiter(),
	}
}

// Allow counts one request for key and reports whether it may proceed.
// A cache error lets the request through.
func (l *SubmitLimiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	if l == nil || l.limit <= 0 {
		return true, 0
	}
	if l.cache == nil {
		return l.local.allow(key, l.limit, l.window)
	}

	n, err := l.cache.Incr(ctx, key, l.window)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("rate limit counter unavailable")
		return true, 0
	}
	if n > int64(l.limit) {
		return false, l.window
	}
	return true, l.window
}

type localRateLimiter struct {
	mu     sync.Mutex
	states map[string]*localRateState
	now    func() time.Time
}

type localRateState struct {
	count   int
	resetAt time.Time
}

func newLocalRateLimiter() *localRateLimiter {
	return &localRateLimiter{
		states: make(map[string]*localRateState),
		now:    time.Now,
	}
}

func (l *localRateLimiter) allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for k, s := range l.states {
		if now.After(s.resetAt) {
			delete(l.states, k)
		}
	}

	state, ok := l.states[key]
	if !ok {
		state = &localRateState{resetAt: now.Add(window)}
		l.states[key] = state
	}

	if state.count >= limit {
		retryAfter := state.resetAt.Sub(now)
		if retryAfter <= 0 {
			retryAfter = window
		}
		return false, retryAfter
	}

	state.count++
	return true, window
}
