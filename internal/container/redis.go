package container

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
)

// RedisClient owns the shared Redis connection pool.
type RedisClient struct {
	redis.UniversalClient
}

// Shutdown closes the connection pool.
func (c *RedisClient) Shutdown() error {
	return c.Close()
}

// RedisPackage provides a *RedisClient. It connects only when first invoked.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*RedisClient, error) {
		opts := do.MustInvoke[*Options](i)

		client := redis.NewClient(&redis.Options{
			Addr: opts.RedisAddr,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()

			return nil, fmt.Errorf("connect to redis at %s: %w", opts.RedisAddr, err)
		}

		return &RedisClient{UniversalClient: client}, nil
	})
}
