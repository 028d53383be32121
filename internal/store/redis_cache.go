package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortkv/internal/kv"
)

// RedisCacheStore wraps a kv.Store with Redis caching for reads.
// A cached entry never outlives the expiry of the entry it mirrors.
type RedisCacheStore struct {
	store  kv.Store
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisCacheStore creates a new Redis-cached store decorator.
func NewRedisCacheStore(store kv.Store, client redis.UniversalClient, ttl time.Duration) *RedisCacheStore {
	return &RedisCacheStore{
		store:  store,
		client: client,
		prefix: "cache:",
		ttl:    ttl,
		now:    time.Now,
	}
}

func (r *RedisCacheStore) key(ns kv.Namespace, key string) string {
	return r.prefix + string(ns) + ":" + key
}

// Get retrieves an entry, checking the cache first.
func (r *RedisCacheStore) Get(ctx context.Context, ns kv.Namespace, key string) (kv.Entry, error) {
	if entry, err := r.getFromCache(ctx, ns, key); err == nil {
		return entry, nil
	}

	// Cache miss - fetch from store
	entry, err := r.store.Get(ctx, ns, key)
	if err != nil {
		return kv.Entry{}, err
	}

	r.cacheEntry(ctx, ns, key, entry)

	return entry, nil
}

// Put stores an entry in the underlying store and updates the cache.
func (r *RedisCacheStore) Put(ctx context.Context, ns kv.Namespace, key string, value []byte, expireAt int64) error {
	if err := r.store.Put(ctx, ns, key, value, expireAt); err != nil {
		return err
	}

	r.cacheEntry(ctx, ns, key, kv.Entry{Value: value, ExpireAt: expireAt})

	return nil
}

// PutIfAbsent delegates the conditional write and caches the winner.
func (r *RedisCacheStore) PutIfAbsent(
	ctx context.Context, ns kv.Namespace, key string, value []byte, expireAt int64,
) error {
	if err := r.store.PutIfAbsent(ctx, ns, key, value, expireAt); err != nil {
		return err
	}

	r.cacheEntry(ctx, ns, key, kv.Entry{Value: value, ExpireAt: expireAt})

	return nil
}

// Delete removes the entry from the store and evicts it from the cache.
func (r *RedisCacheStore) Delete(ctx context.Context, ns kv.Namespace, key string) error {
	if err := r.store.Delete(ctx, ns, key); err != nil {
		return err
	}

	return r.client.Del(ctx, r.key(ns, key)).Err()
}

func (r *RedisCacheStore) getFromCache(ctx context.Context, ns kv.Namespace, key string) (kv.Entry, error) {
	result, err := r.client.HGetAll(ctx, r.key(ns, key)).Result()
	if err != nil {
		return kv.Entry{}, err
	}

	value, ok := result["value"]
	if !ok {
		return kv.Entry{}, kv.ErrNotFound
	}

	entry := kv.Entry{Value: []byte(value)}

	if ts, ok := result["expire_at"]; ok {
		if expireAt, err := strconv.ParseInt(ts, 10, 64); err == nil {
			entry.ExpireAt = expireAt
		}
	}

	if entry.Expired(r.now()) {
		return kv.Entry{}, kv.ErrNotFound
	}

	return entry, nil
}

func (r *RedisCacheStore) cacheEntry(ctx context.Context, ns kv.Namespace, key string, entry kv.Entry) {
	ttl := r.ttl

	if entry.ExpireAt != 0 {
		remaining := time.Unix(entry.ExpireAt, 0).Sub(r.now())
		if remaining <= 0 {
			return
		}

		if ttl <= 0 || remaining < ttl {
			ttl = remaining
		}
	}

	pipe := r.client.Pipeline()
	cacheKey := r.key(ns, key)

	pipe.HSet(ctx, cacheKey, map[string]interface{}{
		"value":     entry.Value,
		"expire_at": entry.ExpireAt,
	})

	if ttl > 0 {
		pipe.Expire(ctx, cacheKey, ttl)
	}

	_, _ = pipe.Exec(ctx)
}

// Shutdown is a no-op for RedisCacheStore (client managed externally).
func (r *RedisCacheStore) Shutdown() error {
	return nil
}

// Compile-time check.
var _ kv.Store = (*RedisCacheStore)(nil)
