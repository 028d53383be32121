package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/do"
	"github.com/serroba/shortkv/internal/health"
	"github.com/serroba/shortkv/internal/kv"
	"github.com/serroba/shortkv/internal/store"
	"go.uber.org/zap"
)

// Storage is the configured kv.Store together with the health checks and
// cleanup of the backends behind it.
type Storage struct {
	kv.Store

	checkers map[string]health.Checker
	purge    func(ctx context.Context) (int64, error)
	closers  []func() error
}

// Checkers returns one health check per backend the store depends on.
func (s *Storage) Checkers() map[string]health.Checker {
	return s.checkers
}

// PurgeExpired removes expired keys from backends that do not expire them
// natively. It returns zero for the others.
func (s *Storage) PurgeExpired(ctx context.Context) (int64, error) {
	if s.purge == nil {
		return 0, nil
	}

	return s.purge(ctx)
}

// Shutdown releases backend resources owned by the storage.
func (s *Storage) Shutdown() error {
	var errs []error

	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}

	return errors.Join(errs...)
}

func newStorage(i *do.Injector) (*Storage, error) {
	opts := do.MustInvoke[*Options](i)
	logger := do.MustInvoke[*zap.Logger](i)

	s := &Storage{checkers: make(map[string]health.Checker)}

	switch opts.Backend {
	case BackendMemory:
		s.Store = store.NewMemoryStore()
		s.checkers["store"] = health.CheckerFunc(func(context.Context) error { return nil })

	case BackendRedis:
		client, err := do.Invoke[*RedisClient](i)
		if err != nil {
			return nil, err
		}

		s.Store = store.NewRedisStore(client)
		s.checkers["redis"] = health.NewRedisChecker(client)

	case BackendPostgres:
		pg, err := do.Invoke[*Postgres](i)
		if err != nil {
			return nil, err
		}

		pgStore := store.NewPostgresStore(pg.Pool)
		if err := pgStore.EnsureSchema(context.Background()); err != nil {
			return nil, fmt.Errorf("create postgres schema: %w", err)
		}

		s.Store = pgStore
		s.checkers["postgres"] = pgStore
		s.purge = pgStore.PurgeExpired

	case BackendBolt:
		boltStore, err := store.NewBoltStore(store.BoltOptions{
			Path:   opts.BoltPath,
			Logger: logger.Named("bolt"),
		})
		if err != nil {
			return nil, fmt.Errorf("open bolt database %s: %w", opts.BoltPath, err)
		}

		s.Store = boltStore
		s.checkers["bolt"] = boltStore
		s.closers = append(s.closers, boltStore.Shutdown)
		s.purge = func(context.Context) (int64, error) {
			n, err := boltStore.Sweep()

			return int64(n), err
		}

	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}

	if opts.CacheTTL > 0 && opts.Backend != BackendMemory && opts.Backend != BackendRedis {
		client, err := do.Invoke[*RedisClient](i)
		if err != nil {
			return nil, errors.Join(err, s.Shutdown())
		}

		s.Store = store.NewRedisCacheStore(s.Store, client, time.Duration(opts.CacheTTL)*time.Second)
		s.checkers["redis"] = health.NewRedisChecker(client)
	}

	logger.Info("storage ready",
		zap.String("backend", opts.Backend),
		zap.Bool("redis_cache", opts.CacheTTL > 0 && opts.Backend != BackendMemory && opts.Backend != BackendRedis))

	return s, nil
}

// StorePackage provides the *Storage and the kv.Store it wraps.
func StorePackage(i *do.Injector) {
	do.Provide(i, newStorage)
	do.Provide(i, func(i *do.Injector) (kv.Store, error) {
		s, err := do.Invoke[*Storage](i)
		if err != nil {
			return nil, err
		}

		return s.Store, nil
	})
}
