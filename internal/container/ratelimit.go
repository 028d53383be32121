package container

import (
	"fmt"

	"github.com/samber/do"
	"github.com/serroba/shortkv/internal/ratelimit"
	"github.com/serroba/shortkv/internal/store"
)

// RateLimitPackage provides the *ratelimit.PolicyLimiter with the default policy.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		opts := do.MustInvoke[*Options](i)

		var counters ratelimit.Store

		switch opts.RateLimitStore {
		case "", "memory":
			counters = store.NewRateLimitMemoryStore()
		case "redis":
			client, err := do.Invoke[*RedisClient](i)
			if err != nil {
				return nil, err
			}

			counters = store.NewRateLimitRedisStore(client)
		default:
			return nil, fmt.Errorf("unknown rate limit store %q", opts.RateLimitStore)
		}

		return ratelimit.NewPolicyLimiter(counters, ratelimit.DefaultPolicy()), nil
	})
}
