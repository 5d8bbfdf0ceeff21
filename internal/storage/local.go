package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore writes objects to a directory on disk. Used in development
// and tests; the returned reference is a path under /media.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the backing directory if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Upload writes data under key, creating intermediate directories.
func (s *LocalStore) Upload(ctx context.Context, key string, data []byte) (string, error) {
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create object dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	return "/media/" + key, nil
}
