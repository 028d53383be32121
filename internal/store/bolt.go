package store

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/serroba/shortkv/internal/kv"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const (
	defaultBoltSweepInterval = 10 * time.Minute
	boltSweepBatchSize       = 10000
	boltFillPercent          = 0.9
)

// BoltStore is a bbolt implementation of kv.Store.
// Each namespace gets a data bucket and an expiry index bucket; a background
// sweeper deletes expired keys.
type BoltStore struct {
	db       *bbolt.DB
	now      func() time.Time
	interval time.Duration
	logger   *zap.Logger
	closed   chan struct{}
	wg       sync.WaitGroup
}

// BoltOptions configures a BoltStore.
type BoltOptions struct {
	// Path is the database file path.
	Path string
	// SweepInterval controls how often expired keys are purged.
	// Zero uses the default; a negative value disables sweeping.
	SweepInterval time.Duration
	Logger        *zap.Logger
	Now           func() time.Time
}

// NewBoltStore opens (or creates) the database at opts.Path.
func NewBoltStore(opts BoltOptions) (*BoltStore, error) {
	if dir := filepath.Dir(opts.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}

	db, err := bbolt.Open(opts.Path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, ns := range kv.Namespaces() {
			if _, err := tx.CreateBucketIfNotExists(dataBucket(ns)); err != nil {
				return err
			}

			if _, err := tx.CreateBucketIfNotExists(expireBucket(ns)); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	s := &BoltStore{
		db:       db,
		now:      opts.Now,
		interval: opts.SweepInterval,
		logger:   opts.Logger,
		closed:   make(chan struct{}),
	}

	if s.now == nil {
		s.now = time.Now
	}

	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	if s.interval == 0 {
		s.interval = defaultBoltSweepInterval
	}

	if s.interval > 0 {
		s.wg.Add(1)

		go s.sweepLoop()
	}

	return s, nil
}

func dataBucket(ns kv.Namespace) []byte {
	return []byte(ns)
}

func expireBucket(ns kv.Namespace) []byte {
	return []byte(string(ns) + ".expire")
}

func encodeExpireAt(expireAt int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(expireAt))

	return buf
}

func decodeExpireAt(b []byte) int64 {
	if len(b) != 8 {
		return 0
	}

	return int64(binary.BigEndian.Uint64(b))
}

func (s *BoltStore) Get(_ context.Context, ns kv.Namespace, key string) (kv.Entry, error) {
	var entry kv.Entry

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(dataBucket(ns))
		if data == nil {
			return kv.ErrNotFound
		}

		value := data.Get([]byte(key))
		if value == nil {
			return kv.ErrNotFound
		}

		expireAt := decodeExpireAt(tx.Bucket(expireBucket(ns)).Get([]byte(key)))
		if kv.IsExpired(expireAt, s.now()) {
			return kv.ErrNotFound
		}

		// bbolt values are only valid for the life of the transaction.
		entry.Value = append([]byte(nil), value...)
		entry.ExpireAt = expireAt

		return nil
	})

	return entry, err
}

func (s *BoltStore) Put(_ context.Context, ns kv.Namespace, key string, value []byte, expireAt int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return s.put(tx, ns, key, value, expireAt)
	})
}

func (s *BoltStore) PutIfAbsent(_ context.Context, ns kv.Namespace, key string, value []byte, expireAt int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data := tx.Bucket(dataBucket(ns))
		if data == nil {
			return bbolt.ErrBucketNotFound
		}

		if data.Get([]byte(key)) != nil {
			existing := decodeExpireAt(tx.Bucket(expireBucket(ns)).Get([]byte(key)))
			if !kv.IsExpired(existing, s.now()) {
				return kv.ErrExists
			}
		}

		return s.put(tx, ns, key, value, expireAt)
	})
}

func (s *BoltStore) put(tx *bbolt.Tx, ns kv.Namespace, key string, value []byte, expireAt int64) error {
	data := tx.Bucket(dataBucket(ns))
	expires := tx.Bucket(expireBucket(ns))

	if data == nil || expires == nil {
		return bbolt.ErrBucketNotFound
	}

	if err := data.Put([]byte(key), value); err != nil {
		return err
	}

	if expireAt == 0 {
		return expires.Delete([]byte(key))
	}

	return expires.Put([]byte(key), encodeExpireAt(expireAt))
}

func (s *BoltStore) Delete(_ context.Context, ns kv.Namespace, key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data := tx.Bucket(dataBucket(ns))
		if data == nil {
			return nil
		}

		if err := data.Delete([]byte(key)); err != nil {
			return err
		}

		return tx.Bucket(expireBucket(ns)).Delete([]byte(key))
	})
}

// Sweep deletes every expired key and returns how many were removed.
func (s *BoltStore) Sweep() (int, error) {
	total := 0

	for _, ns := range kv.Namespaces() {
		var expired [][]byte

		now := s.now()

		err := s.db.View(func(tx *bbolt.Tx) error {
			return tx.Bucket(expireBucket(ns)).ForEach(func(k, v []byte) error {
				if kv.IsExpired(decodeExpireAt(v), now) {
					expired = append(expired, append([]byte(nil), k...))
				}

				return nil
			})
		})
		if err != nil {
			return total, err
		}

		for start := 0; start < len(expired); start += boltSweepBatchSize {
			end := min(start+boltSweepBatchSize, len(expired))

			err := s.db.Update(func(tx *bbolt.Tx) error {
				data := tx.Bucket(dataBucket(ns))
				expires := tx.Bucket(expireBucket(ns))
				data.FillPercent = boltFillPercent

				for _, k := range expired[start:end] {
					// Re-check: the key may have been rewritten since the scan.
					if !kv.IsExpired(decodeExpireAt(expires.Get(k)), now) {
						continue
					}

					if err := data.Delete(k); err != nil {
						return err
					}

					if err := expires.Delete(k); err != nil {
						return err
					}

					total++
				}

				return nil
			})
			if err != nil {
				return total, err
			}
		}
	}

	return total, nil
}

func (s *BoltStore) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.closed:
			return
		case <-ticker.C:
			n, err := s.Sweep()
			if err != nil {
				s.logger.Error("failed to sweep expired keys", zap.Error(err))

				continue
			}

			if n > 0 {
				s.logger.Debug("swept expired keys", zap.Int("count", n))
			}
		}
	}
}

// Ping checks that the database is still open.
func (s *BoltStore) Ping(_ context.Context) error {
	return s.db.View(func(_ *bbolt.Tx) error { return nil })
}

// Shutdown stops the sweeper and closes the database.
func (s *BoltStore) Shutdown() error {
	close(s.closed)
	s.wg.Wait()

	return s.db.Close()
}

// Compile-time check.
var _ kv.Store = (*BoltStore)(nil)
