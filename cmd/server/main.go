package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"github.com/serroba/shortkv/internal/assets"
	"github.com/serroba/shortkv/internal/container"
	"github.com/serroba/shortkv/internal/messaging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func registerPackages(injector *do.Injector, options *container.Options) {
	do.ProvideValue(injector, options)
	do.ProvideValue(injector, &container.ConsumerSettings{
		Transport: messaging.Transport(options.Events),
		Analytics: options.Analytics,
	})
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.StorePackage(injector)
	container.AssetsPackage(injector)
	container.ShortenerPackage(injector)
	container.RateLimitPackage(injector)
	container.GoChannelPackage(injector)
	container.PublisherGroupPackage(injector)
	container.ConsumerGroupPackage(injector)
	container.HTTPPackage(injector)
}

// withStorage runs fn against the configured store, then shuts everything down.
func withStorage(options *container.Options, fn func(ctx context.Context, storage *container.Storage, logger *zap.Logger) error) {
	injector := do.New()
	registerPackages(injector, options)

	logger := do.MustInvoke[*zap.Logger](injector)

	storage, err := do.Invoke[*container.Storage](injector)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}

	runErr := fn(context.Background(), storage, logger)

	if err := injector.Shutdown(); err != nil {
		logger.Error("service shutdown error", zap.Error(err))
	}

	if runErr != nil {
		logger.Error("command failed", zap.Error(runErr))
		os.Exit(1)
	}
}

func addCommands(cli humacli.CLI) {
	cli.Root().AddCommand(&cobra.Command{
		Use:   "load-assets <dir>",
		Short: "Upload a directory into the assets namespace",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(_ *cobra.Command, args []string, options *container.Options) {
			withStorage(options, func(ctx context.Context, storage *container.Storage, logger *zap.Logger) error {
				n, err := assets.LoadDir(ctx, storage, os.DirFS(args[0]), logger)
				if err != nil {
					return err
				}

				logger.Info("assets loaded", zap.String("dir", args[0]), zap.Int("count", n))

				return nil
			})
		}),
	})

	cli.Root().AddCommand(&cobra.Command{
		Use:   "seed-users <file>",
		Short: "Store the API keys listed in a YAML users file",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(_ *cobra.Command, args []string, options *container.Options) {
			withStorage(options, func(ctx context.Context, storage *container.Storage, logger *zap.Logger) error {
				n, err := container.SeedUsersFile(ctx, storage, args[0])
				if err != nil {
					return err
				}

				logger.Info("users seeded", zap.String("file", args[0]), zap.Int("count", n))

				return nil
			})
		}),
	})

	cli.Root().AddCommand(&cobra.Command{
		Use:   "purge-expired",
		Short: "Delete expired keys from postgres or bolt storage",
		Args:  cobra.NoArgs,
		Run: humacli.WithOptions(func(_ *cobra.Command, _ []string, options *container.Options) {
			withStorage(options, func(ctx context.Context, storage *container.Storage, logger *zap.Logger) error {
				n, err := storage.PurgeExpired(ctx)
				if err != nil {
					return err
				}

				logger.Info("expired keys purged", zap.Int64("count", n))

				return nil
			})
		}),
	})
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		injector := do.New()
		registerPackages(injector, options)

		var (
			server *http.Server
			logger = zap.NewNop()
		)

		hooks.OnStart(func() {
			logger = do.MustInvoke[*zap.Logger](injector)

			storage, err := do.Invoke[*container.Storage](injector)
			if err != nil {
				logger.Fatal("failed to open storage", zap.Error(err))
			}

			if err := container.Bootstrap(context.Background(), options, storage, logger); err != nil {
				logger.Fatal("bootstrap failed", zap.Error(err))
			}

			// Invoke API to trigger route registration
			if _, err := do.Invoke[huma.API](injector); err != nil {
				logger.Fatal("failed to build api", zap.Error(err))
			}

			// In-process events are consumed by the server itself.
			if messaging.Transport(options.Events) == messaging.TransportGoChannel {
				group := do.MustInvoke[*messaging.ConsumerGroup](injector)
				if err := group.Start(context.Background()); err != nil {
					logger.Fatal("failed to start consumer group", zap.Error(err))
				}
			}

			router := do.MustInvoke[*chi.Mux](injector)

			server = &http.Server{
				Addr:              fmt.Sprintf(":%d", options.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger.Info("server starting",
				zap.Int("port", options.Port),
				zap.String("backend", options.Backend),
				zap.String("events", options.Events))

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("server failed", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			logger.Info("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if server != nil {
				if err := server.Shutdown(ctx); err != nil {
					logger.Error("server shutdown error", zap.Error(err))
				}
			}

			if err := injector.Shutdown(); err != nil {
				logger.Error("service shutdown error", zap.Error(err))
			}

			logger.Info("shutdown complete")
		})
	})

	addCommands(cli)

	cli.Run()
}
