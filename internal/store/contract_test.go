package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortkv/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStoreContract exercises the behaviour every kv.Store backend shares.
// Keys are random so the suite can run against shared servers.
func testStoreContract(t *testing.T, s kv.Store) {
	t.Helper()

	ctx := context.Background()
	future := time.Now().Add(time.Hour).Unix()
	past := time.Now().Add(-time.Hour).Unix()

	newKey := func() string { return uuid.NewString() }

	t.Run("get missing key", func(t *testing.T) {
		_, err := s.Get(ctx, kv.NamespaceURLs, newKey())

		assert.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("put and get", func(t *testing.T) {
		key := newKey()

		require.NoError(t, s.Put(ctx, kv.NamespaceURLs, key, []byte("value"), future))

		got, err := s.Get(ctx, kv.NamespaceURLs, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("value"), got.Value)
		assert.Equal(t, future, got.ExpireAt)
	})

	t.Run("put without expiry", func(t *testing.T) {
		key := newKey()

		require.NoError(t, s.Put(ctx, kv.NamespaceUsers, key, []byte("alice"), 0))

		got, err := s.Get(ctx, kv.NamespaceUsers, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("alice"), got.Value)
		assert.Zero(t, got.ExpireAt)
	})

	t.Run("put overwrites", func(t *testing.T) {
		key := newKey()

		require.NoError(t, s.Put(ctx, kv.NamespaceURLs, key, []byte("first"), 0))
		require.NoError(t, s.Put(ctx, kv.NamespaceURLs, key, []byte("second"), 0))

		got, err := s.Get(ctx, kv.NamespaceURLs, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("second"), got.Value)
	})

	t.Run("namespaces are independent", func(t *testing.T) {
		key := newKey()

		require.NoError(t, s.Put(ctx, kv.NamespaceAssets, key, []byte("asset"), 0))

		_, err := s.Get(ctx, kv.NamespaceURLs, key)
		assert.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("expired entry is not returned", func(t *testing.T) {
		key := newKey()

		require.NoError(t, s.Put(ctx, kv.NamespaceURLs, key, []byte("stale"), past))

		_, err := s.Get(ctx, kv.NamespaceURLs, key)
		assert.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("put if absent stores new key", func(t *testing.T) {
		key := newKey()

		require.NoError(t, s.PutIfAbsent(ctx, kv.NamespaceURLs, key, []byte("v"), future))

		got, err := s.Get(ctx, kv.NamespaceURLs, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), got.Value)
	})

	t.Run("put if absent rejects live key", func(t *testing.T) {
		key := newKey()

		require.NoError(t, s.PutIfAbsent(ctx, kv.NamespaceURLs, key, []byte("first"), future))

		err := s.PutIfAbsent(ctx, kv.NamespaceURLs, key, []byte("second"), future)
		require.ErrorIs(t, err, kv.ErrExists)

		got, err := s.Get(ctx, kv.NamespaceURLs, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("first"), got.Value, "existing value must be kept")
	})

	t.Run("put if absent replaces expired key", func(t *testing.T) {
		key := newKey()

		require.NoError(t, s.Put(ctx, kv.NamespaceURLs, key, []byte("stale"), past))
		require.NoError(t, s.PutIfAbsent(ctx, kv.NamespaceURLs, key, []byte("fresh"), future))

		got, err := s.Get(ctx, kv.NamespaceURLs, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("fresh"), got.Value)
	})

	t.Run("delete", func(t *testing.T) {
		key := newKey()

		require.NoError(t, s.Put(ctx, kv.NamespaceURLs, key, []byte("v"), 0))
		require.NoError(t, s.Delete(ctx, kv.NamespaceURLs, key))

		_, err := s.Get(ctx, kv.NamespaceURLs, key)
		assert.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("delete missing key", func(t *testing.T) {
		assert.NoError(t, s.Delete(ctx, kv.NamespaceURLs, newKey()))
	})
}
