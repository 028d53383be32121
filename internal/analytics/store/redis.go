package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortkv/internal/analytics"
)

// Redis keeps per-link counters in Redis hashes:
// analytics:link:<code> holds created_at, username and hits, and
// analytics:referrers:<code> counts referrers.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis creates a Redis-backed analytics store.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client, prefix: "analytics:"}
}

func (r *Redis) linkKey(code string) string {
	return r.prefix + "link:" + code
}

func (r *Redis) referrersKey(code string) string {
	return r.prefix + "referrers:" + code
}

func (r *Redis) SaveURLCreated(ctx context.Context, event *analytics.URLCreatedEvent) error {
	key := r.linkKey(event.Code)

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"created_at":  event.CreatedAt.UnixMilli(),
		"expire_time": event.ExpireTime,
		"username":    event.Username,
	})

	if event.ExpireTime != 0 {
		pipe.ExpireAt(ctx, key, time.UnixMilli(event.ExpireTime))
	}

	_, err := pipe.Exec(ctx)

	return err
}

func (r *Redis) SaveURLAccessed(ctx context.Context, event *analytics.URLAccessedEvent) error {
	pipe := r.client.TxPipeline()
	pipe.HIncrBy(ctx, r.linkKey(event.Code), "hits", 1)
	pipe.HSet(ctx, r.linkKey(event.Code), "last_access", event.AccessedAt.UnixMilli())

	if event.Referrer != "" {
		pipe.HIncrBy(ctx, r.referrersKey(event.Code), event.Referrer, 1)
	}

	_, err := pipe.Exec(ctx)

	return err
}

// Hits returns how many times code was resolved.
func (r *Redis) Hits(ctx context.Context, code string) (int64, error) {
	n, err := r.client.HGet(ctx, r.linkKey(code), "hits").Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	return n, err
}

var _ analytics.Store = (*Redis)(nil)
