package middleware

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortkv/internal/handlers"
)

// RequestMeta adds the Host header, client IP, user-agent, referrer and
// request ID to the request context.
func RequestMeta(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := handlers.RequestMeta{
			Host:      ctx.Host(),
			ClientIP:  clientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
			Referrer:  ctx.Header("Referer"),
			RequestID: ctx.Header(RequestIDHeader),
		}

		newCtx := handlers.ContextWithRequestMeta(ctx.Context(), meta)
		ctx = huma.WithContext(ctx, newCtx)

		next(ctx)
	}
}
