package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortkv/internal/kv"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS kv_entries (
		namespace  TEXT        NOT NULL,
		key        TEXT        NOT NULL,
		value      BYTEA       NOT NULL,
		expire_at  TIMESTAMPTZ,
		PRIMARY KEY (namespace, key)
	);
	CREATE INDEX IF NOT EXISTS kv_entries_expire_at_idx
		ON kv_entries (expire_at) WHERE expire_at IS NOT NULL;
`

// PostgresStore is a PostgreSQL implementation of kv.Store.
// Expired rows are invisible to reads and may be replaced by PutIfAbsent;
// PurgeExpired reclaims them.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the kv_entries table when missing.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, postgresSchema)

	return err
}

func (p *PostgresStore) Get(ctx context.Context, ns kv.Namespace, key string) (kv.Entry, error) {
	query := `
		SELECT value, expire_at
		FROM kv_entries
		WHERE namespace = $1 AND key = $2
		  AND (expire_at IS NULL OR expire_at > now())
	`

	var (
		entry    kv.Entry
		expireAt *time.Time
	)

	err := p.pool.QueryRow(ctx, query, string(ns), key).Scan(&entry.Value, &expireAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kv.Entry{}, kv.ErrNotFound
		}

		return kv.Entry{}, err
	}

	if expireAt != nil {
		entry.ExpireAt = expireAt.Unix()
	}

	return entry, nil
}

func (p *PostgresStore) Put(ctx context.Context, ns kv.Namespace, key string, value []byte, expireAt int64) error {
	query := `
		INSERT INTO kv_entries (namespace, key, value, expire_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, expire_at = EXCLUDED.expire_at
	`

	_, err := p.pool.Exec(ctx, query, string(ns), key, value, nullableTime(expireAt))

	return err
}

func (p *PostgresStore) PutIfAbsent(ctx context.Context, ns kv.Namespace, key string, value []byte, expireAt int64) error {
	query := `
		INSERT INTO kv_entries (namespace, key, value, expire_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, expire_at = EXCLUDED.expire_at
		WHERE kv_entries.expire_at IS NOT NULL AND kv_entries.expire_at <= now()
	`

	tag, err := p.pool.Exec(ctx, query, string(ns), key, value, nullableTime(expireAt))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return kv.ErrExists
	}

	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, ns kv.Namespace, key string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM kv_entries WHERE namespace = $1 AND key = $2`, string(ns), key)

	return err
}

// PurgeExpired deletes rows whose expiry has passed and returns how many went.
func (p *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM kv_entries WHERE expire_at IS NOT NULL AND expire_at <= now()`)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func nullableTime(expireAt int64) *time.Time {
	if expireAt == 0 {
		return nil
	}

	t := time.Unix(expireAt, 0).UTC()

	return &t
}

// Compile-time check.
var _ kv.Store = (*PostgresStore)(nil)
