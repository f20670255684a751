// Package storage implements the blob storage backend contract consumed by
// the document store. A backend persists raw document content at paths
// produced by the pathres package; it knows nothing about tenants, baskets,
// or database rows.
//
// Two implementations ship: a filesystem backend rooted at a configured
// directory, and a MinIO-compatible object store. Backend writes are not
// transactional with database inserts; callers commit the referencing row
// only after Put acknowledges success (see services.DocumentService).
//
// Error semantics:
//   - Get of a missing object returns ErrNotFound (possibly wrapped in a
//     *ReadError).
//   - Failed writes and deletes return a *WriteError carrying the path.
//   - Failed reads return a *ReadError carrying the path.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when the requested object does not exist in the
// backend.
var ErrNotFound = errors.New("object not found")

// Backend is the storage contract: resolved paths in, bytes out. All
// methods honor context cancellation where the underlying client supports
// it.
type Backend interface {
	// Put stores data at path, creating any intermediate structure.
	Put(ctx context.Context, path string, data []byte) error

	// Get returns the content stored at path, or ErrNotFound.
	Get(ctx context.Context, path string) ([]byte, error)

	// Delete removes the object at path. Deleting a missing object is not
	// an error (delete is idempotent).
	Delete(ctx context.Context, path string) error
}

// WriteError reports a failed backend write or delete. Use errors.As to
// recover the path for diagnostics.
type WriteError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("storage write failed for %q: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *WriteError) Unwrap() error { return e.Err }

// ReadError reports a failed backend read.
type ReadError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ReadError) Error() string {
	return fmt.Sprintf("storage read failed for %q: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ReadError) Unwrap() error { return e.Err }
