package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortkv/internal/kv"
)

// RedisStore is a Redis implementation of kv.Store.
// Each namespace is a key prefix; expiry uses Redis' native EXAT.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a new Redis-backed store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "kv:",
	}
}

func (r *RedisStore) key(ns kv.Namespace, key string) string {
	return r.prefix + string(ns) + ":" + key
}

func (r *RedisStore) Get(ctx context.Context, ns kv.Namespace, key string) (kv.Entry, error) {
	fullKey := r.key(ns, key)

	pipe := r.client.Pipeline()
	getCmd := pipe.Get(ctx, fullKey)
	ttlCmd := pipe.ExpireTime(ctx, fullKey)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return kv.Entry{}, err
	}

	value, err := getCmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return kv.Entry{}, kv.ErrNotFound
		}

		return kv.Entry{}, err
	}

	entry := kv.Entry{Value: value}

	// EXPIRETIME returns -1 for keys without expiry.
	if expireAt, err := ttlCmd.Result(); err == nil && expireAt > 0 {
		entry.ExpireAt = int64(expireAt / time.Second)
	}

	return entry, nil
}

func (r *RedisStore) Put(ctx context.Context, ns kv.Namespace, key string, value []byte, expireAt int64) error {
	args := redis.SetArgs{}
	if expireAt != 0 {
		args.ExpireAt = time.Unix(expireAt, 0)
	}

	return r.client.SetArgs(ctx, r.key(ns, key), value, args).Err()
}

func (r *RedisStore) PutIfAbsent(ctx context.Context, ns kv.Namespace, key string, value []byte, expireAt int64) error {
	args := redis.SetArgs{Mode: "NX"}
	if expireAt != 0 {
		args.ExpireAt = time.Unix(expireAt, 0)
	}

	err := r.client.SetArgs(ctx, r.key(ns, key), value, args).Err()
	if errors.Is(err, redis.Nil) {
		return kv.ErrExists
	}

	return err
}

func (r *RedisStore) Delete(ctx context.Context, ns kv.Namespace, key string) error {
	return r.client.Del(ctx, r.key(ns, key)).Err()
}

// Compile-time check.
var _ kv.Store = (*RedisStore)(nil)
