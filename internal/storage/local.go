package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore implements ObjectStore using local disk. It is intended for
// development and testing; artifacts are written under a root directory
// mirroring the object key layout.
type LocalStore struct {
	rootDir string
	baseURL string
}

// NewLocalStore creates a new LocalStore.
// If rootDir is empty, a "clipforge-store" directory under os.TempDir()
// is used. The directory is created if it doesn't exist.
func NewLocalStore(rootDir, baseURL string) (*LocalStore, error) {
	if rootDir == "" {
		rootDir = filepath.Join(os.TempDir(), "clipforge-store")
	}

	if err := os.MkdirAll(rootDir, 0750); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	return &LocalStore{
		rootDir: rootDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// RootDir returns the store's root directory.
func (s *LocalStore) RootDir() string {
	return s.rootDir
}

// Put writes the data under the key's path and returns a URL built from
// the configured base URL.
func (s *LocalStore) Put(ctx context.Context, key string, data io.Reader, _ string) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	path := filepath.Join(s.rootDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", fmt.Errorf("create object directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 - path is derived from a server-built key
	if err != nil {
		return "", fmt.Errorf("create object file: %w", err)
	}

	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write object file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close object file: %w", err)
	}

	return s.baseURL + "/" + key, nil
}

// Get opens a stored object by key.
func (s *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	f, err := os.Open(filepath.Join(s.rootDir, filepath.FromSlash(key))) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("open object file: %w", err)
	}
	return f, nil
}
