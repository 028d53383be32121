package shortener

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/serroba/shortkv/internal/kv"
	"go.uber.org/zap"
)

// Sampler returns a candidate identifier integer.
type Sampler func() uint64

// UniformSampler samples uniformly from [minID, maxID).
func UniformSampler(minID, maxID uint64) Sampler {
	return func() uint64 {
		return minID + rand.Uint64N(maxID-minID)
	}
}

// Allocator finds identifiers that have no record in the URL namespace.
type Allocator struct {
	store       kv.Store
	sample      Sampler
	maxAttempts int
	logger      *zap.Logger
}

// AllocatorOption customizes an Allocator.
type AllocatorOption func(*Allocator)

// WithSampler replaces the uniform sampler, mainly for tests.
func WithSampler(s Sampler) AllocatorOption {
	return func(a *Allocator) {
		a.sample = s
	}
}

// NewAllocator creates an allocator over store using the range and attempt cap of cfg.
func NewAllocator(store kv.Store, cfg Config, logger *zap.Logger, opts ...AllocatorOption) *Allocator {
	a := &Allocator{
		store:       store,
		sample:      UniformSampler(cfg.IDMin, cfg.IDMax),
		maxAttempts: cfg.MaxAllocAttempts,
		logger:      logger,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Allocate samples identifiers until one is free. The check is not atomic
// with the later write; callers persist with PutIfAbsent.
func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	id, _, err := a.AllocateWithin(ctx, a.maxAttempts)

	return id, err
}

// AllocateWithin is Allocate with an explicit sample budget. It also returns
// how many samples it drew, so callers retrying after a lost write can share
// one budget across calls.
func (a *Allocator) AllocateWithin(ctx context.Context, budget int) (string, int, error) {
	for attempt := 1; attempt <= budget; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", attempt - 1, err
		}

		id := EncodeBase62(a.sample())
		if !a.exists(ctx, id) {
			return id, attempt, nil
		}

		a.logger.Debug("identifier collision", zap.String("id", id), zap.Int("attempt", attempt))
	}

	a.logger.Error("identifier allocation exhausted", zap.Int("attempts", budget))

	return "", budget, AllocationExhausted()
}

// exists treats lookup failures as "free"; the conditional write still
// protects against overwriting a live record.
func (a *Allocator) exists(ctx context.Context, id string) bool {
	_, err := a.store.Get(ctx, kv.NamespaceURLs, id)
	if err == nil {
		return true
	}

	if !errors.Is(err, kv.ErrNotFound) {
		a.logger.Warn("existence check failed, treating identifier as free",
			zap.String("id", id),
			zap.Error(err),
		)
	}

	return false
}
