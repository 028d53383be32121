package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/shortkv/internal/kv"
)

// MemoryStore is an in-memory implementation of kv.Store.
// Expired entries are dropped lazily on access.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[kv.Namespace]map[string]kv.Entry
	now     func() time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock creates an in-memory store that reads time from now.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	entries := make(map[kv.Namespace]map[string]kv.Entry)
	for _, ns := range kv.Namespaces() {
		entries[ns] = make(map[string]kv.Entry)
	}

	return &MemoryStore{entries: entries, now: now}
}

func (m *MemoryStore) Get(_ context.Context, ns kv.Namespace, key string) (kv.Entry, error) {
	m.mu.RLock()
	entry, ok := m.bucket(ns)[key]
	m.mu.RUnlock()

	if !ok {
		return kv.Entry{}, kv.ErrNotFound
	}

	if entry.Expired(m.now()) {
		m.mu.Lock()
		if current, ok := m.bucket(ns)[key]; ok && current.Expired(m.now()) {
			delete(m.bucket(ns), key)
		}
		m.mu.Unlock()

		return kv.Entry{}, kv.ErrNotFound
	}

	return copyEntry(entry), nil
}

func (m *MemoryStore) Put(_ context.Context, ns kv.Namespace, key string, value []byte, expireAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.bucketFor(ns)[key] = copyEntry(kv.Entry{Value: value, ExpireAt: expireAt})

	return nil
}

func (m *MemoryStore) PutIfAbsent(_ context.Context, ns kv.Namespace, key string, value []byte, expireAt int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket := m.bucketFor(ns)
	if existing, ok := bucket[key]; ok && !existing.Expired(m.now()) {
		return kv.ErrExists
	}

	bucket[key] = copyEntry(kv.Entry{Value: value, ExpireAt: expireAt})

	return nil
}

func (m *MemoryStore) Delete(_ context.Context, ns kv.Namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.bucketFor(ns), key)

	return nil
}

// Len returns the number of stored entries in ns, expired ones included.
func (m *MemoryStore) Len(ns kv.Namespace) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.bucket(ns))
}

// bucket must be called with the lock held; it may return nil.
func (m *MemoryStore) bucket(ns kv.Namespace) map[string]kv.Entry {
	return m.entries[ns]
}

// bucketFor must be called with the write lock held.
func (m *MemoryStore) bucketFor(ns kv.Namespace) map[string]kv.Entry {
	b, ok := m.entries[ns]
	if !ok {
		b = make(map[string]kv.Entry)
		m.entries[ns] = b
	}

	return b
}

func copyEntry(e kv.Entry) kv.Entry {
	value := make([]byte, len(e.Value))
	copy(value, e.Value)

	return kv.Entry{Value: value, ExpireAt: e.ExpireAt}
}

// Compile-time check.
var _ kv.Store = (*MemoryStore)(nil)
