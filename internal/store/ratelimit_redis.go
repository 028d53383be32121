package store

import (
	"context"
	"strconv"
	"time"

	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortkv/internal/ratelimit"
)

// RateLimitRedisStore is a Redis implementation of ratelimit.Store backed by
// one sorted set per key, scored by request time.
type RateLimitRedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
	member func() string
}

// NewRateLimitRedisStore creates a new Redis rate limit store.
func NewRateLimitRedisStore(client redis.UniversalClient) *RateLimitRedisStore {
	// Members must be unique so requests in the same nanosecond are all counted.
	member, _ := nanoid.Standard(12)

	return &RateLimitRedisStore{
		client: client,
		prefix: "ratelimit:",
		now:    time.Now,
		member: member,
	}
}

func (s *RateLimitRedisStore) Record(ctx context.Context, key string, window time.Duration) (int64, error) {
	now := s.now()
	fullKey := s.prefix + key
	cutoff := now.Add(-window).UnixNano()

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, fullKey, "-inf", strconv.FormatInt(cutoff, 10))
	pipe.ZAdd(ctx, fullKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 36) + ":" + s.member(),
	})
	count := pipe.ZCard(ctx, fullKey)
	pipe.PExpire(ctx, fullKey, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return count.Val(), nil
}

// Compile-time check.
var _ ratelimit.Store = (*RateLimitRedisStore)(nil)
