// Package kv defines the namespaced key-value capability every storage
// backend implements.
package kv

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a key is missing or has expired.
	ErrNotFound = errors.New("key not found")
	// ErrExists is returned by PutIfAbsent when a live value is already stored.
	ErrExists = errors.New("key already exists")
)

// Namespace separates independent key families that share one Store.
type Namespace string

const (
	// NamespaceAssets holds static files keyed by request path.
	NamespaceAssets Namespace = "assets"
	// NamespaceURLs holds short URL records keyed by identifier.
	NamespaceURLs Namespace = "urls"
	// NamespaceUsers holds user records keyed by API key.
	NamespaceUsers Namespace = "users"
)

// Namespaces lists every namespace a backend must provision.
func Namespaces() []Namespace {
	return []Namespace{NamespaceAssets, NamespaceURLs, NamespaceUsers}
}

// Entry is a stored value together with its absolute expiry.
type Entry struct {
	Value []byte
	// ExpireAt is the Unix time in seconds after which the entry is gone.
	// Zero means the entry never expires.
	ExpireAt int64
}

// Expired reports whether the entry is past its expiry at the given time.
func (e Entry) Expired(now time.Time) bool {
	return IsExpired(e.ExpireAt, now)
}

// IsExpired reports whether an expireAt marker lies in the past.
func IsExpired(expireAt int64, now time.Time) bool {
	return expireAt != 0 && now.Unix() >= expireAt
}

// Store is a namespaced key-value store with optional absolute expiry.
type Store interface {
	// Get returns the live entry for key, or ErrNotFound.
	Get(ctx context.Context, ns Namespace, key string) (Entry, error)

	// Put stores value under key, replacing any previous value.
	// expireAt is Unix seconds; zero stores without expiry.
	Put(ctx context.Context, ns Namespace, key string, value []byte, expireAt int64) error

	// PutIfAbsent stores value only when no live value exists for key.
	// It returns ErrExists otherwise.
	PutIfAbsent(ctx context.Context, ns Namespace, key string, value []byte, expireAt int64) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, ns Namespace, key string) error
}
