package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/cashflow-diagnosis/internal/domain/providers"
	redisclient "github.com/zatekoja/cashflow-diagnosis/internal/infrastructure/clients/redis"
)

func newTestAdapter(t *testing.T) (*RedisAdapter, *redis.Client) {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rc := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, rc.Ping(context.Background()).Err())
	client := redisclient.NewFromClient(rc)
	t.Cleanup(func() { client.Close() })
	return NewRedisAdapter(client, "cfd-test:"), rc
}

func TestRedisAdapter_GetSetDelete(t *testing.T) {
	adapter, rc := newTestAdapter(t)
	ctx := context.Background()
	t.Cleanup(func() { _ = adapter.Delete(ctx, "session:k") })

	_, err := adapter.Get(ctx, "session:k")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	require.NoError(t, adapter.Set(ctx, "session:k", []byte(`{"id":"k"}`), time.Minute))
	got, err := adapter.Get(ctx, "session:k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"k"}`, string(got))

	ttl, err := rc.TTL(ctx, "cfd-test:session:k").Result()
	require.NoError(t, err)
	assert.InDelta(t, time.Minute.Seconds(), ttl.Seconds(), 2)

	require.NoError(t, adapter.Delete(ctx, "session:k"))
	_, err = adapter.Get(ctx, "session:k")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestRedisAdapter_IncrKeepsFirstExpiry(t *testing.T) {
	adapter, rc := newTestAdapter(t)
	ctx := context.Background()
	t.Cleanup(func() { _ = adapter.Delete(ctx, "rate:1.2.3.4") })

	n, err := adapter.Incr(ctx, "rate:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = adapter.Incr(ctx, "rate:1.2.3.4", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ttl, err := rc.TTL(ctx, "cfd-test:rate:1.2.3.4").Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, time.Minute)
}
