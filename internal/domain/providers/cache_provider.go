package providers

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider is the shared key/value store behind sessions and the
// submission rate limit. Entries always expire.
type CacheProvider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// SetNX stores value only if key does not exist and reports whether it
	// did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Incr adds one to the counter at key and returns the new value. The
	// ttl starts when the counter is created and is not extended after.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}
