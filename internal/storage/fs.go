// Package storage – filesystem backend.
package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Filesystem stores objects as plain files beneath a root directory. The
// root already encodes tenant and application scope, so stored paths are
// the basket and document segments only (Part B + Part C); the resolver
// never prepends a tenant prefix for this backend.
type Filesystem struct {
	root string
}

// NewFilesystem returns a filesystem backend rooted at dir. The directory
// is created if it does not exist.
func NewFilesystem(dir string) (*Filesystem, error) {
	if dir == "" {
		return nil, errors.New("storage: filesystem root is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &WriteError{Path: dir, Err: err}
	}
	return &Filesystem{root: dir}, nil
}

// Root returns the configured root directory.
func (f *Filesystem) Root() string { return f.root }

// Put writes data to path relative to the root, creating parent
// directories as needed.
func (f *Filesystem) Put(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	full := f.abs(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// Get reads the file at path relative to the root, returning ErrNotFound
// for missing files.
func (f *Filesystem) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	data, err := os.ReadFile(f.abs(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &ReadError{Path: path, Err: ErrNotFound}
	}
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return data, nil
}

// Delete removes the file at path. Missing files are ignored.
func (f *Filesystem) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	err := os.Remove(f.abs(path))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func (f *Filesystem) abs(path string) string {
	return filepath.Join(f.root, filepath.FromSlash(path))
}
