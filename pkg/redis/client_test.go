package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/Dj0083/final-project-sub000/pkg/config"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client, err := New(context.Background(), config.RedisConfig{Address: srv.Addr(), PoolSize: 2}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func TestIdempotencyRecordLifecycle(t *testing.T) {
	ctx := context.Background()
	client, srv := newTestClient(t)

	key := client.IdempotencyKey("7|POST|/api/v1/funding-requests", "abc")
	stored, err := client.SetNX(ctx, key, "first", time.Minute)
	require.NoError(t, err)
	require.True(t, stored)

	stored, err = client.SetNX(ctx, key, "second", time.Minute)
	require.NoError(t, err)
	require.False(t, stored)

	value, err := client.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "first", value)
	require.Equal(t, time.Minute, srv.TTL(key))

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	require.ErrorIs(t, err, redis.Nil)
}

func TestIdempotencyRecordExpires(t *testing.T) {
	ctx := context.Background()
	client, srv := newTestClient(t)

	key := client.IdempotencyKey("scope", "ttl")
	_, err := client.SetNX(ctx, key, "v", time.Second)
	require.NoError(t, err)

	srv.FastForward(2 * time.Second)
	_, err = client.Get(ctx, key)
	require.ErrorIs(t, err, redis.Nil)
}

func TestNewFailsWhenServerIsDown(t *testing.T) {
	srv, err := miniredis.Run()
	require.NoError(t, err)
	addr := srv.Addr()
	srv.Close()

	_, err = New(context.Background(), config.RedisConfig{Address: addr, DialTimeout: 200 * time.Millisecond}, nil)
	require.Error(t, err)
}

func TestPingAndUninitializedClient(t *testing.T) {
	client, _ := newTestClient(t)
	require.NoError(t, client.Ping(context.Background()))

	var empty *Client
	require.ErrorIs(t, empty.Ping(context.Background()), errNotInitialized)
	require.NoError(t, empty.Close())
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/3", PoolSize: 7, DialTimeout: time.Second})
	require.NoError(t, err)
	require.Equal(t, 3, opts.DB)
	require.Equal(t, 7, opts.PoolSize)
	require.Equal(t, time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 2})
	require.NoError(t, err)
	require.Equal(t, "cache:6379", opts.Addr)
	require.Equal(t, 2, opts.DB)
}

func TestIdempotencyKey(t *testing.T) {
	client := &Client{}
	require.Equal(t, "mkt:idempotency:scope:id", client.IdempotencyKey("scope", "id"))
	require.Equal(t, "mkt:idempotency:scope", client.IdempotencyKey("scope", " "))
}
