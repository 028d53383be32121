package shortener_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/serroba/shortkv/internal/kv"
	"github.com/serroba/shortkv/internal/store"
)

var errBackend = errors.New("backend unavailable")

// flakyStore wraps a MemoryStore and can inject failures per operation.
type flakyStore struct {
	*store.MemoryStore

	mu sync.Mutex
	// existsFirst makes the first N Get calls on urls report a live entry.
	existsFirst int
	// conflictsFirst makes the first N PutIfAbsent calls report ErrExists.
	conflictsFirst int
	getErr         error
	putErr         error
	gets           int
	puts           int
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: store.NewMemoryStore()}
}

// clock is a settable time source shared by the service and its store.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (f *flakyStore) Get(ctx context.Context, ns kv.Namespace, key string) (kv.Entry, error) {
	f.mu.Lock()
	f.gets++
	getErr := f.getErr
	exists := ns == kv.NamespaceURLs && f.existsFirst > 0
	if exists {
		f.existsFirst--
	}
	f.mu.Unlock()

	if getErr != nil {
		return kv.Entry{}, getErr
	}

	if exists {
		return kv.Entry{Value: []byte(`{}`)}, nil
	}

	return f.MemoryStore.Get(ctx, ns, key)
}

func (f *flakyStore) PutIfAbsent(ctx context.Context, ns kv.Namespace, key string, value []byte, expireAt int64) error {
	f.mu.Lock()
	f.puts++
	putErr := f.putErr
	conflict := f.conflictsFirst > 0
	if conflict {
		f.conflictsFirst--
	}
	f.mu.Unlock()

	if putErr != nil {
		return putErr
	}

	if conflict {
		return kv.ErrExists
	}

	return f.MemoryStore.PutIfAbsent(ctx, ns, key, value, expireAt)
}
