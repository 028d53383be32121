package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortkv/internal/ratelimit"
	"go.uber.org/zap"
)

var errMissingOperation = errors.New("missing operation in context")

// PolicyRateLimiter returns a Huma middleware that applies policy-based rate limiting.
// It uses a ScopeResolver to determine which scopes apply to each request,
// then checks all applicable limits from the policy.
//
// Per-endpoint configuration can be provided via operation metadata using
// ratelimit.MetadataKey. This allows endpoints to:
//   - Disable rate limiting entirely (Disabled: true)
//   - Override the scope detection (Scope: ratelimit.ScopeRead)
//   - Define custom limits (Limits: []ratelimit.LimitConfig{...})
func PolicyRateLimiter(
	api huma.API,
	limiter *ratelimit.PolicyLimiter,
	resolver ratelimit.ScopeResolver,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		path := operationPath(ctx)
		cfg := ratelimit.GetEndpointConfig(ctx)

		if cfg != nil && cfg.Disabled {
			logger.Debug("rate limiting disabled for endpoint",
				zap.String("path", path), zap.String("method", ctx.Method()))
			next(ctx)

			return
		}

		var (
			allowed  bool
			exceeded *ratelimit.LimitExceeded
			err      error
		)

		key := clientKey(ctx)

		if cfg != nil && len(cfg.Limits) > 0 {
			if ctx.Operation() == nil {
				logger.Error("custom rate limit check failed", zap.Error(errMissingOperation))
				_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", errMissingOperation)

				return
			}

			// Custom limits are keyed by route template, so every identifier
			// behind "/{id}" shares one counter per client.
			allowed, exceeded, err = limiter.AllowCustom(ctx.Context(), key, path, cfg.Limits)
		} else {
			allowed, exceeded, err = limiter.Allow(ctx.Context(), key, resolver.Resolve(ctx))
		}

		if err != nil {
			logger.Error("rate limit check failed", zap.String("path", path), zap.Error(err))
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		if !allowed {
			rejectRequest(api, ctx, exceeded, path, logger)

			return
		}

		next(ctx)
	}
}

func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}

func rejectRequest(
	api huma.API,
	ctx huma.Context,
	exceeded *ratelimit.LimitExceeded,
	path string,
	logger *zap.Logger,
) {
	msg := "rate limit exceeded"

	if exceeded != nil {
		scope := exceeded.Scope
		if scope == "" {
			scope = "endpoint"
		}

		msg = fmt.Sprintf("rate limit exceeded: %s scope, %d/%d requests in %s",
			scope, exceeded.Count, exceeded.Config.Max, exceeded.Config.Window)

		logger.Warn("rate limit exceeded",
			zap.String("path", path),
			zap.String("method", ctx.Method()),
			zap.String("scope", string(scope)),
			zap.Int64("count", exceeded.Count),
			zap.Int64("max", exceeded.Config.Max),
			zap.Duration("window", exceeded.Config.Window),
			zap.String("client_ip", clientIP(ctx)),
		)
	}

	ctx.SetHeader("Retry-After", retryAfter(exceeded))
	_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, msg)
}

func retryAfter(exceeded *ratelimit.LimitExceeded) string {
	if exceeded == nil {
		return "60"
	}

	return fmt.Sprintf("%d", max(1, int64(exceeded.Config.Window.Seconds())))
}
