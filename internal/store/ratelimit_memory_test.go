package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/serroba/shortkv/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMemoryStore(t *testing.T) {
	ctx := context.Background()

	// Keys look like the limiter's: client key, route template, window.
	const createKey = "client-a:/new:1m0s"

	t.Run("counts requests in the window", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		for want := int64(1); want <= 10; want++ {
			got, err := s.Record(ctx, createKey, time.Minute)

			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("routes and clients count separately", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		_, _ = s.Record(ctx, createKey, time.Minute)
		_, _ = s.Record(ctx, createKey, time.Minute)

		redirect, err := s.Record(ctx, "client-a:/{id}:1m0s", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), redirect)

		other, err := s.Record(ctx, "client-b:/new:1m0s", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), other)
	})

	t.Run("window slides", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		_, _ = s.Record(ctx, createKey, 50*time.Millisecond)
		_, _ = s.Record(ctx, createKey, 50*time.Millisecond)

		time.Sleep(60 * time.Millisecond)

		count, err := s.Record(ctx, createKey, 50*time.Millisecond)

		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("concurrent requests are all counted", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		var wg sync.WaitGroup

		for range 50 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_, _ = s.Record(ctx, createKey, time.Minute)
			}()
		}

		wg.Wait()

		count, err := s.Record(ctx, createKey, time.Minute)

		require.NoError(t, err)
		assert.Equal(t, int64(51), count)
	})
}
