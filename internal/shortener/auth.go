package shortener

import (
	"context"
	"errors"

	"github.com/serroba/shortkv/internal/kv"
)

// AuthResolver maps an API key to its user.
type AuthResolver struct {
	store kv.Store
}

// NewAuthResolver creates a resolver reading the users namespace of store.
func NewAuthResolver(store kv.Store) *AuthResolver {
	return &AuthResolver{store: store}
}

// Resolve returns the user owning apiKey. An empty or unknown key resolves to
// nil (anonymous) without error; a stored user that cannot be decoded is a
// deserialization error.
func (a *AuthResolver) Resolve(ctx context.Context, apiKey string) (*User, error) {
	if apiKey == "" {
		return nil, nil
	}

	entry, err := a.store.Get(ctx, kv.NamespaceUsers, apiKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}

		return nil, ServerError(err)
	}

	user, err := DecodeUser(entry.Value)
	if err != nil {
		return nil, DeserializationError(err)
	}

	return user, nil
}
