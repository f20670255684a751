// Package tenant – provisioning and bootstrap error values.
//
// Sentinel errors cover the predictable cases callers branch on
// (errors.Is); the structured types carry diagnostic detail recovered with
// errors.As.
package tenant

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTenantExists is returned when provisioning an identifier that is
	// already registered. Exactly one of two concurrent provisioners for
	// the same id succeeds; the other observes this error.
	ErrTenantExists = errors.New("tenant already exists")

	// ErrInvalidTenantID is returned when an identifier violates the
	// naming rule or hits the reserved-word blacklist.
	ErrInvalidTenantID = errors.New("invalid tenant id")

	// ErrTenantNotFound is returned when resolving a tenant that was
	// never provisioned.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrNotInitialized is returned by tenant-scoped operations invoked
	// before the bootstrap tenant has been initialized.
	ErrNotInitialized = errors.New("bootstrap tenant not initialized")
)

// SchemaValidationError reports that a freshly provisioned boundary is
// missing expected tables or indexes. Provisioning rolls the boundary back
// when this is returned.
type SchemaValidationError struct {
	TenantID string
	Missing  []string
}

// Error implements the error interface.
func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("tenant %q schema validation failed, missing: %s",
		e.TenantID, strings.Join(e.Missing, ", "))
}

// SetupError reports that the bootstrap boundary or the registry is
// unreachable or malformed. It wraps the underlying cause.
type SetupError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *SetupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("setup error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("setup error: %s", e.Reason)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *SetupError) Unwrap() error { return e.Err }
