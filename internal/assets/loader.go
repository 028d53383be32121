package assets

import (
	"context"
	"io/fs"
	"path"
	"path/filepath"

	"github.com/serroba/shortkv/internal/kv"
	"go.uber.org/zap"
)

// LoadDir uploads every regular file below root into the assets namespace,
// keyed by "/" plus its slash-separated path relative to root.
func LoadDir(ctx context.Context, store kv.Store, fsys fs.FS, logger *zap.Logger) (int, error) {
	count := 0

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}

		key := "/" + filepath.ToSlash(p)
		if err := store.Put(ctx, kv.NamespaceAssets, key, data, 0); err != nil {
			return err
		}

		logger.Debug("asset loaded", zap.String("key", key), zap.Int("bytes", len(data)))

		count++

		return nil
	})

	return count, err
}

// Key returns the store key LoadDir uses for a request path.
func Key(requestPath string) string {
	return path.Clean("/" + requestPath)
}
