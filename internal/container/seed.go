package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/serroba/shortkv/internal/assets"
	"github.com/serroba/shortkv/internal/kv"
	"github.com/serroba/shortkv/internal/shortener"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// UsersFile is the YAML layout of a users seed file:
//
//	users:
//	  - username: alice
//	    api_key: 3f9c...
type UsersFile struct {
	Users []struct {
		Username string `yaml:"username"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"users"`
}

// SeedUsers stores every user in r under its API key and returns how many
// were written.
func SeedUsers(ctx context.Context, st kv.Store, r io.Reader) (int, error) {
	var file UsersFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("decode users file: %w", err)
	}

	for n, u := range file.Users {
		if u.APIKey == "" {
			return n, fmt.Errorf("user %q has no api_key", u.Username)
		}

		value, err := shortener.EncodeUser(shortener.User{Username: u.Username, APIKey: u.APIKey})
		if err != nil {
			return n, fmt.Errorf("user %d: %w", n, err)
		}

		if err := st.Put(ctx, kv.NamespaceUsers, u.APIKey, value, 0); err != nil {
			return n, fmt.Errorf("store user %q: %w", u.Username, err)
		}
	}

	return len(file.Users), nil
}

// SeedUsersFile runs SeedUsers over the file at path.
func SeedUsersFile(ctx context.Context, st kv.Store, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return SeedUsers(ctx, st, f)
}

// Bootstrap loads the configured assets directory and users file, if any.
func Bootstrap(ctx context.Context, opts *Options, st kv.Store, logger *zap.Logger) error {
	if opts.AssetsDir != "" {
		n, err := assets.LoadDir(ctx, st, os.DirFS(opts.AssetsDir), logger)
		if err != nil {
			return fmt.Errorf("load assets from %s: %w", opts.AssetsDir, err)
		}

		logger.Info("assets loaded", zap.String("dir", opts.AssetsDir), zap.Int("count", n))
	}

	if opts.UsersFile != "" {
		n, err := SeedUsersFile(ctx, st, opts.UsersFile)
		if err != nil {
			return err
		}

		logger.Info("users seeded", zap.String("file", opts.UsersFile), zap.Int("count", n))
	}

	return nil
}
