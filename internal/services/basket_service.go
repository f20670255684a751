// Package services – BasketService
//
// This file implements the BasketService, which manages the lifecycle of
// baskets within one tenant boundary. Basket creation resolves and caches
// the storage path prefix components (Part A and Part B) exactly once;
// deletion cascades to every row that referenced the basket or its
// documents, inside a single transaction, and then cleans up backend blobs
// best-effort.
//
// Service-level errors (e.g., ErrBasketNotFound, ErrBasketExists) are
// returned for predictable cases so callers can branch on them.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/docex/go-docstore-backend/internal/domain"
	"github.com/docex/go-docstore-backend/internal/pathres"
	"github.com/docex/go-docstore-backend/internal/repo"
	"github.com/docex/go-docstore-backend/internal/storage"
)

// Lifecycle event types appended to the event log.
const (
	EventBasketCreated   = "basket.created"
	EventBasketDeleted   = "basket.deleted"
	EventDocumentAdded   = "document.added"
	EventDocumentRemoved = "document.removed"
)

// BasketService provides basket-level operations: creation with path
// component caching, listing, status toggling, and cascading deletion.
type BasketService struct {
	// DB is the active tenant's boundary handle.
	DB *gorm.DB
	// Backend stores and removes document content blobs.
	Backend storage.Backend
	// PathConfig contributes Part A of resolved paths. Captured once at
	// construction from the process-wide configuration.
	PathConfig pathres.Config
	// StorageBackendType is domain.StorageBackendFilesystem or
	// domain.StorageBackendObjectStore; filesystem baskets carry no
	// Part A prefix.
	StorageBackendType string
	// Log receives structured lifecycle events.
	Log zerolog.Logger
}

// NewBasketService constructs a BasketService for one tenant boundary.
func NewBasketService(db *gorm.DB, backend storage.Backend, pathCfg pathres.Config, backendType string, log zerolog.Logger) *BasketService {
	return &BasketService{
		DB:                 db,
		Backend:            backend,
		PathConfig:         pathCfg,
		StorageBackendType: backendType,
		Log:                log,
	}
}

// Create inserts a new basket with a generated UUID and cached Part A+B
// path components. Name uniqueness within the tenant is enforced by the
// storage layer's unique index, so two concurrent creators of the same
// name resolve to exactly one winner; the loser receives ErrBasketExists.
func (s *BasketService) Create(ctx context.Context, name, description string) (*domain.Basket, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	id := uuid.NewString()
	prefix := ""
	if s.StorageBackendType != domain.StorageBackendFilesystem {
		// Part A: filesystem roots already encode tenant/application
		// scope, so only object-store baskets carry the prefix.
		prefix = pathres.TenantPrefix(s.PathConfig)
	}

	b := &domain.Basket{
		ID:             id,
		Name:           name,
		Description:    description,
		StorageBackend: s.StorageBackendType,
		PathPrefix:     prefix,
		PathSegment:    pathres.BasketSegment(name, id),
		Status:         domain.BasketStatusActive,
	}

	payload, _ := json.Marshal(map[string]string{"name": name})
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateBasket(ctx, tx, b); err != nil {
			return err
		}
		return appendEvent(ctx, tx, b.ID, "", EventBasketCreated, string(payload))
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, ErrBasketExists
	}
	if err != nil {
		return nil, err
	}

	s.Log.Info().Str("basket_id", b.ID).Str("name", name).Msg("basket created")
	return b, nil
}

// Get fetches a basket by ID, or ErrBasketNotFound.
func (s *BasketService) Get(ctx context.Context, id string) (*domain.Basket, error) {
	b, err := repo.GetBasket(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrBasketNotFound
	}
	return b, err
}

// GetByName fetches a basket by its tenant-unique name.
func (s *BasketService) GetByName(ctx context.Context, name string) (*domain.Basket, error) {
	b, err := repo.GetBasketByName(ctx, s.DB, name)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrBasketNotFound
	}
	return b, err
}

// List returns all baskets of the tenant, newest first.
func (s *BasketService) List(ctx context.Context) ([]domain.Basket, error) {
	return repo.ListBaskets(ctx, s.DB)
}

// SetStatus toggles a basket between active and inactive.
func (s *BasketService) SetStatus(ctx context.Context, id string, active bool) error {
	status := domain.BasketStatusActive
	if !active {
		status = domain.BasketStatusInactive
	}
	err := repo.UpdateBasketStatus(ctx, s.DB, id, status)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrBasketNotFound
	}
	return err
}

// Delete removes the basket and everything it owns: documents, file
// history, operations, dependency edges, and metadata, all in one
// transaction. Historical events referencing the basket survive (weak
// references). After the transaction commits, the documents' backend
// blobs are removed best-effort; an unreferenced leftover blob is
// acceptable, a dangling row is not.
func (s *BasketService) Delete(ctx context.Context, id string) error {
	var paths []string

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetBasket(ctx, tx, id); err != nil {
			return err
		}
		docIDs, err := repo.ListDocumentIDs(ctx, tx, id)
		if err != nil {
			return err
		}
		if len(docIDs) > 0 {
			if err := tx.Model(&domain.Document{}).
				Where("basket_id = ?", id).
				Pluck("storage_path", &paths).Error; err != nil {
				return err
			}
			if err := cascadeDeleteDocuments(ctx, tx, docIDs); err != nil {
				return err
			}
		}
		if err := repo.DeleteBasket(ctx, tx, id); err != nil {
			return err
		}
		return appendEvent(ctx, tx, id, "", EventBasketDeleted, "")
	})
	if errors.Is(err, repo.ErrNotFound) {
		return ErrBasketNotFound
	}
	if err != nil {
		return err
	}

	s.cleanupBlobs(ctx, paths)
	s.Log.Info().Str("basket_id", id).Int("documents", len(paths)).Msg("basket deleted")
	return nil
}

// cascadeDeleteDocuments removes every row owned by the given documents.
// Runs inside the caller's transaction.
func cascadeDeleteDocuments(ctx context.Context, tx *gorm.DB, docIDs []string) error {
	if err := tx.WithContext(ctx).
		Where("operation_id IN (SELECT id FROM operations WHERE document_id IN ?)", docIDs).
		Delete(&domain.OperationDependency{}).Error; err != nil {
		return err
	}
	for _, model := range []any{
		&domain.Operation{},
		&domain.DocumentMetadata{},
		&domain.FileHistory{},
	} {
		if err := tx.WithContext(ctx).
			Where("document_id IN ?", docIDs).
			Delete(model).Error; err != nil {
			return err
		}
	}
	return tx.WithContext(ctx).
		Where("id IN ?", docIDs).
		Delete(&domain.Document{}).Error
}

// cleanupBlobs deletes backend objects after a committed cascade. Failures
// are logged and swallowed: the rows are already gone and an orphaned blob
// is the accepted failure mode.
func (s *BasketService) cleanupBlobs(ctx context.Context, paths []string) {
	if s.Backend == nil {
		return
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := s.Backend.Delete(ctx, p); err != nil {
			s.Log.Warn().Err(err).Str("path", p).Msg("blob cleanup failed")
		}
	}
}

// appendEvent inserts a lifecycle event row inside the caller's
// transaction; see EventService for the consumer-facing surface.
func appendEvent(ctx context.Context, tx *gorm.DB, basketID, documentID, eventType, payload string) error {
	return repo.CreateEvent(ctx, tx, &domain.DocEvent{
		EventID:    uuid.NewString(),
		BasketID:   basketID,
		DocumentID: documentID,
		EventType:  eventType,
		Payload:    payload,
		Status:     domain.EventStatusPending,
	})
}
