package container

import (
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jaevor/go-nanoid"
	"github.com/samber/do"
	"github.com/serroba/shortkv/internal/analytics"
	"github.com/serroba/shortkv/internal/assets"
	"github.com/serroba/shortkv/internal/handlers"
	"github.com/serroba/shortkv/internal/health"
	"github.com/serroba/shortkv/internal/kv"
	"github.com/serroba/shortkv/internal/messaging"
	"github.com/serroba/shortkv/internal/middleware"
	"github.com/serroba/shortkv/internal/ratelimit"
	"github.com/serroba/shortkv/internal/router"
	"github.com/serroba/shortkv/internal/shortener"
	"go.uber.org/zap"
)

const requestIDLength = 16

// NewAPIConfig returns the huma configuration with the operational
// endpoints moved under the reserved prefix.
func NewAPIConfig() huma.Config {
	config := huma.DefaultConfig("shortkv", "1.0.0")
	config.OpenAPIPath = router.ReservedPrefix + "openapi"
	config.DocsPath = router.ReservedPrefix + "docs"
	config.SchemasPath = router.ReservedPrefix + "schemas"

	return config
}

// AssetsPackage provides the *assets.Server.
func AssetsPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*assets.Server, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		st, err := do.Invoke[kv.Store](i)
		if err != nil {
			return nil, err
		}

		if opts.AssetCacheBytes <= 0 {
			return assets.NewServer(st, nil, logger), nil
		}

		cache, err := assets.NewCache(opts.AssetCacheBytes)
		if err != nil {
			return nil, fmt.Errorf("create asset cache: %w", err)
		}

		return assets.NewServer(st, cache, logger), nil
	})
}

// ShortenerPackage provides the *shortener.Service.
func ShortenerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.Service, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		cfg, err := opts.ShortenerConfig()
		if err != nil {
			return nil, fmt.Errorf("invalid shortener options: %w", err)
		}

		st, err := do.Invoke[kv.Store](i)
		if err != nil {
			return nil, err
		}

		return shortener.NewService(st, cfg, logger.Named("shortener")), nil
	})
}

// HTTPPackage provides the *chi.Mux and the huma.API mounted on it.
// Invoking huma.API registers every route.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		logger := do.MustInvoke[*zap.Logger](i)
		mux := do.MustInvoke[*chi.Mux](i)

		assetServer, err := do.Invoke[*assets.Server](i)
		if err != nil {
			return nil, err
		}

		service, err := do.Invoke[*shortener.Service](i)
		if err != nil {
			return nil, err
		}

		storage, err := do.Invoke[*Storage](i)
		if err != nil {
			return nil, err
		}

		limiter, err := do.Invoke[*ratelimit.PolicyLimiter](i)
		if err != nil {
			return nil, err
		}

		publishers, err := do.Invoke[*messaging.PublisherGroup](i)
		if err != nil {
			return nil, err
		}

		requestID, err := nanoid.Standard(requestIDLength)
		if err != nil {
			return nil, err
		}

		// chi requires middleware before any route, and humachi.New mounts docs.
		mux.Use(
			middleware.RequestID(requestID),
			middleware.AccessLog(logger.Named("http")),
			router.Middleware(assetServer, logger),
		)

		handlers.UseStructuredErrors()

		api := humachi.New(mux, NewAPIConfig())
		api.UseMiddleware(
			middleware.RequestMeta(api),
			middleware.PolicyRateLimiter(api, limiter, ratelimit.NewOperationScopeResolver(), logger),
		)

		urlHandler := handlers.NewURLHandler(
			service,
			messaging.PublishFor[analytics.URLCreatedEvent](publishers, analytics.TopicURLCreated),
			messaging.PublishFor[analytics.URLAccessedEvent](publishers, analytics.TopicURLAccessed),
			logger,
		)

		handlers.RegisterRoutes(api, urlHandler)
		health.RegisterRoutes(api, health.NewHandler(storage.Checkers()))

		return api, nil
	})
}
