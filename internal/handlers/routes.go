package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortkv/internal/ratelimit"
	"github.com/serroba/shortkv/internal/router"
)

// RegisterRoutes registers the short URL operations with per-endpoint rate limit configuration.
func RegisterRoutes(api huma.API, urlHandler *URLHandler) {
	// Stricter limits for writes.
	huma.Register(api, huma.Operation{
		OperationID: "create-short-url",
		Method:      http.MethodPost,
		Path:        router.CreatePath,
		Summary:     "Create short URL",
		Description: "Allocates a short identifier for the URL. Permanent links and links " +
			"living longer than the guest maximum require an X-AUTH-KEY header.",
		Tags: []string{"URLs"},
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusTooManyRequests,
			http.StatusServiceUnavailable,
		},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 10},
					{Window: time.Hour, Max: 100},
					{Window: 24 * time.Hour, Max: 500},
				},
			},
		},
	}, urlHandler.CreateShortURL)

	huma.Register(api, huma.Operation{
		OperationID:   "redirect",
		Method:        http.MethodGet,
		Path:          "/{id}",
		Summary:       "Redirect to original URL",
		Description:   "Redirects to the destination stored for the short identifier.",
		Tags:          []string{"URLs"},
		DefaultStatus: http.StatusFound,
		Errors:        []int{http.StatusNotFound},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 1000},
				},
			},
		},
	}, urlHandler.RedirectToURL)
}
