package shortener_test

import (
	"context"
	"testing"

	"github.com/serroba/shortkv/internal/kv"
	"github.com/serroba/shortkv/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthResolver(t *testing.T) {
	ctx := context.Background()
	s := newFlakyStore()
	require.NoError(t, s.Put(ctx, kv.NamespaceUsers, "secret", []byte(`{"username":"alice","api_key":"secret"}`), 0))
	require.NoError(t, s.Put(ctx, kv.NamespaceUsers, "broken", []byte(`{"username":`), 0))

	resolver := shortener.NewAuthResolver(s)

	t.Run("empty key is anonymous", func(t *testing.T) {
		user, err := resolver.Resolve(ctx, "")

		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("unknown key is anonymous", func(t *testing.T) {
		user, err := resolver.Resolve(ctx, "nope")

		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("known key resolves user", func(t *testing.T) {
		user, err := resolver.Resolve(ctx, "secret")

		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("corrupt user is a deserialization error", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "broken")

		require.Error(t, err)
		assert.Equal(t, shortener.CodeDeserialization, shortener.AsError(err).Code)
		assert.ErrorIs(t, err, shortener.ErrMalformed)
	})

	t.Run("store failure is a server error", func(t *testing.T) {
		failing := newFlakyStore()
		failing.getErr = errBackend

		_, err := shortener.NewAuthResolver(failing).Resolve(ctx, "secret")

		require.Error(t, err)
		assert.Equal(t, shortener.CodeServerError, shortener.AsError(err).Code)
		assert.ErrorIs(t, err, errBackend)
	})
}
