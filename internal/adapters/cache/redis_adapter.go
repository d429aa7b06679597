package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/providers"
	redisclient "github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/clients/redis"
)

// RedisAdapter is the CacheProvider used when REDIS_ENABLED is set. Every key
// is namespaced with prefix so one Redis can serve several deployments.
type RedisAdapter struct {
	rdb    *redis.Client
	prefix string
}

var _ providers.CacheProvider = (*RedisAdapter)(nil)

func NewRedisAdapter(client *redisclient.Client, prefix string) *RedisAdapter {
	return &RedisAdapter{rdb: client.Client(), prefix: prefix}
}

func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := a.rdb.Get(ctx, a.prefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, providers.ErrCacheMiss
	case err != nil:
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := a.rdb.Set(ctx, a.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (a *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := a.rdb.Del(ctx, a.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (a *RedisAdapter) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ok, err := a.rdb.SetNX(ctx, a.prefix+key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

// Incr runs INCR and EXPIRE NX in one transaction, so a crash between the
// two can never leave a counter without expiry.
func (a *RedisAdapter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	k := a.prefix + key
	var incr *redis.IntCmd
	_, err := a.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return incr.Val(), nil
}
