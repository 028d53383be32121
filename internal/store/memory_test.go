package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/shortkv/internal/kv"
	"github.com/serroba/shortkv/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, store.NewMemoryStore())
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	s := store.NewMemoryStoreWithClock(func() time.Time { return now })

	require.NoError(t, s.Put(ctx, kv.NamespaceURLs, "abc", []byte("v"), now.Unix()+60))

	t.Run("live before expiry", func(t *testing.T) {
		_, err := s.Get(ctx, kv.NamespaceURLs, "abc")
		assert.NoError(t, err)
	})

	t.Run("gone at expiry and dropped", func(t *testing.T) {
		now = now.Add(time.Minute)

		_, err := s.Get(ctx, kv.NamespaceURLs, "abc")
		require.ErrorIs(t, err, kv.ErrNotFound)
		assert.Equal(t, 0, s.Len(kv.NamespaceURLs))
	})
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	value := []byte("original")

	require.NoError(t, s.Put(ctx, kv.NamespaceURLs, "abc", value, 0))

	value[0] = 'X'

	got, err := s.Get(ctx, kv.NamespaceURLs, "abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got.Value)

	got.Value[0] = 'Y'

	again, err := s.Get(ctx, kv.NamespaceURLs, "abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again.Value)
}
