//go:build integration

package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortkv/internal/kv"
	"github.com/serroba/shortkv/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}

	return "localhost:6379"
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: getRedisAddr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	return client
}

func TestRedisStoreIntegration(t *testing.T) {
	client := newRedisClient(t)
	s := store.NewRedisStore(client)

	testStoreContract(t, s)

	t.Run("native expiry is set", func(t *testing.T) {
		ctx := context.Background()
		key := uuid.NewString()
		expireAt := time.Now().Add(time.Hour).Unix()

		require.NoError(t, s.Put(ctx, kv.NamespaceURLs, key, []byte("v"), expireAt))

		ttl, err := client.TTL(ctx, "kv:urls:"+key).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 59*time.Minute)
	})
}

func TestRedisCacheStoreIntegration(t *testing.T) {
	client := newRedisClient(t)
	backing := store.NewMemoryStore()
	s := store.NewRedisCacheStore(backing, client, time.Hour)

	testStoreContract(t, s)

	ctx := context.Background()

	t.Run("serves reads from cache", func(t *testing.T) {
		key := uuid.NewString()

		require.NoError(t, s.Put(ctx, kv.NamespaceURLs, key, []byte("cached"), 0))
		require.NoError(t, backing.Delete(ctx, kv.NamespaceURLs, key))

		got, err := s.Get(ctx, kv.NamespaceURLs, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("cached"), got.Value)
	})

	t.Run("populates cache on miss", func(t *testing.T) {
		key := uuid.NewString()

		require.NoError(t, backing.Put(ctx, kv.NamespaceURLs, key, []byte("backing"), 0))

		_, err := s.Get(ctx, kv.NamespaceURLs, key)
		require.NoError(t, err)

		exists, err := client.Exists(ctx, "cache:urls:"+key).Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), exists)
	})

	t.Run("cache entry does not outlive the record", func(t *testing.T) {
		key := uuid.NewString()
		expireAt := time.Now().Add(time.Minute).Unix()

		require.NoError(t, s.Put(ctx, kv.NamespaceURLs, key, []byte("v"), expireAt))

		ttl, err := client.TTL(ctx, "cache:urls:"+key).Result()
		require.NoError(t, err)
		assert.LessOrEqual(t, ttl, time.Minute)
	})

	t.Run("delete evicts the cache", func(t *testing.T) {
		key := uuid.NewString()

		require.NoError(t, s.Put(ctx, kv.NamespaceURLs, key, []byte("v"), 0))
		require.NoError(t, s.Delete(ctx, kv.NamespaceURLs, key))

		_, err := s.Get(ctx, kv.NamespaceURLs, key)
		assert.ErrorIs(t, err, kv.ErrNotFound)
	})
}

func TestRateLimitRedisStoreIntegration(t *testing.T) {
	client := newRedisClient(t)
	s := store.NewRateLimitRedisStore(client)
	ctx := context.Background()

	t.Run("counts requests in window", func(t *testing.T) {
		key := uuid.NewString()

		for i := int64(1); i <= 3; i++ {
			count, err := s.Record(ctx, key, time.Minute)
			require.NoError(t, err)
			assert.Equal(t, i, count)
		}
	})

	t.Run("forgets requests outside window", func(t *testing.T) {
		key := uuid.NewString()

		_, err := s.Record(ctx, key, 50*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(80 * time.Millisecond)

		count, err := s.Record(ctx, key, 50*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}
