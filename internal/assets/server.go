package assets

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/serroba/shortkv/internal/kv"
	"go.uber.org/zap"
)

// Asset is a static file ready to be written.
type Asset struct {
	Body        []byte
	ContentType string
}

// NewCache creates the in-process cache for cacheable assets, bounded to
// maxBytes of asset bodies.
func NewCache(maxBytes int64) (*ristretto.Cache, error) {
	maxCost := max(1, maxBytes)

	return ristretto.NewCache(&ristretto.Config{
		NumCounters: max(100, maxCost/1024*10),
		MaxCost:     maxCost,
		BufferItems: 64,
	})
}

// Server reads assets from the store, fronted by a ristretto cache.
type Server struct {
	store  kv.Store
	cache  *ristretto.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewServer creates an asset server. cache may be nil to disable caching.
func NewServer(store kv.Store, cache *ristretto.Cache, logger *zap.Logger) *Server {
	return &Server{
		store:  store,
		cache:  cache,
		ttl:    CacheAge,
		logger: logger,
	}
}

// Load returns the asset stored under p with the given content type.
// It returns kv.ErrNotFound when the asset does not exist.
func (s *Server) Load(ctx context.Context, p, contentType string) (*Asset, error) {
	cacheable := s.cache != nil && Cacheable(contentType)

	if cacheable {
		if v, ok := s.cache.Get(p); ok {
			if asset, ok := v.(*Asset); ok {
				return asset, nil
			}
		}
	}

	entry, err := s.store.Get(ctx, kv.NamespaceAssets, p)
	if err != nil {
		return nil, err
	}

	asset := &Asset{Body: entry.Value, ContentType: contentType}

	if cacheable {
		s.cache.SetWithTTL(p, asset, int64(len(asset.Body)), s.ttl)
	}

	return asset, nil
}

// ServeAsset writes the asset at p, or a structured error via writeErr.
func (s *Server) ServeAsset(w http.ResponseWriter, r *http.Request, p, contentType string, writeErr func(http.ResponseWriter, error)) {
	asset, err := s.Load(r.Context(), p, contentType)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logger.Error("failed to load asset", zap.String("path", p), zap.Error(err))
		}

		writeErr(w, err)

		return
	}

	w.Header().Set("Content-Type", asset.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(asset.Body)))

	if Cacheable(asset.ContentType) {
		w.Header().Set("Cache-Control", CacheControl)
	}

	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		_, _ = w.Write(asset.Body)
	}
}

// Shutdown releases the cache.
func (s *Server) Shutdown() error {
	if s.cache != nil {
		s.cache.Close()
	}

	return nil
}
