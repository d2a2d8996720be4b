package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// LocalStore keeps objects on a filesystem rooted at a base directory. The
// filesystem is abstracted so tests run against an in-memory one.
type LocalStore struct {
	fs   afero.Fs
	root string
}

// NewLocalStore creates a filesystem-backed store rooted at dir.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory required")
	}
	fs := afero.NewOsFs()
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &LocalStore{fs: fs, root: dir}, nil
}

// NewMemStore creates an in-memory store for tests.
func NewMemStore() *LocalStore {
	return &LocalStore{fs: afero.NewMemMapFs(), root: "/"}
}

func (s *LocalStore) Put(ctx context.Context, tenantID, key string, data []byte, contentType string) error {
	p, err := s.path(tenantID, key)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("creating object directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, p, data, 0o644); err != nil {
		return fmt.Errorf("writing object: %w", err)
	}
	return nil
}

func (s *LocalStore) Get(ctx context.Context, tenantID, key string) ([]byte, error) {
	p, err := s.path(tenantID, key)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, p)
	if err != nil {
		return nil, fmt.Errorf("reading object %s: %w", key, err)
	}
	return data, nil
}

func (s *LocalStore) Delete(ctx context.Context, tenantID, key string) error {
	p, err := s.path(tenantID, key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting object %s: %w", key, err)
	}
	return nil
}

func (s *LocalStore) Exists(ctx context.Context, tenantID, key string) (bool, error) {
	p, err := s.path(tenantID, key)
	if err != nil {
		return false, err
	}
	return afero.Exists(s.fs, p)
}

func (s *LocalStore) path(tenantID, key string) (string, error) {
	k, err := objectKey(tenantID, key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(k)), nil
}
