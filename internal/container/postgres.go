package container

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/do"
)

// Postgres owns the PostgreSQL connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

// Shutdown closes the pool.
func (p *Postgres) Shutdown() error {
	p.Pool.Close()

	return nil
}

// PostgresPackage provides a *Postgres. It connects only when first invoked.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Postgres, error) {
		opts := do.MustInvoke[*Options](i)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("create postgres pool: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("connect to postgres: %w", err)
		}

		return &Postgres{Pool: pool}, nil
	})
}
