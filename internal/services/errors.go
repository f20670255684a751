// Package services defines the business logic for baskets, documents,
// operations, metadata, and the event log. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers with errors.Is.
//
// Tenant provisioning errors live in the tenant package; storage backend
// errors in the storage package.
package services

import "errors"

var (
	// ErrBasketNotFound indicates that the requested basket does not exist
	// in the active tenant.
	ErrBasketNotFound = errors.New("basket not found")

	// ErrBasketExists is returned when creating a basket whose name is
	// already taken within the tenant.
	ErrBasketExists = errors.New("basket name already exists")

	// ErrDocumentNotFound indicates that the requested document does not
	// exist.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrOperationNotFound indicates a missing operation, or a dependency
	// reference to an operation outside the document's graph.
	ErrOperationNotFound = errors.New("operation not found")

	// ErrMetadataNotFound indicates that no value is stored for the
	// requested (document, key) pair.
	ErrMetadataNotFound = errors.New("metadata key not found")

	// ErrEventNotFound indicates an unknown event id.
	ErrEventNotFound = errors.New("event not found")

	// ErrEmptyName is returned when a basket or document name is blank.
	ErrEmptyName = errors.New("name is empty")

	// ErrEmptyContent is returned when a document is ingested without
	// content.
	ErrEmptyContent = errors.New("document content is empty")

	// ErrInvalidTransition is returned for a document or operation status
	// change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrCyclicDependency is returned when a dependency edge would create
	// a cycle in a document's operation graph. The graph is left
	// unchanged.
	ErrCyclicDependency = errors.New("operation dependency would create a cycle")

	// ErrNoHandler is returned by the dispatcher when no rule matches an
	// operation.
	ErrNoHandler = errors.New("no handler matches operation")
)
