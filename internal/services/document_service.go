// Package services – DocumentService
//
// This file implements DocumentService, the application-level component
// that owns document ingestion and lifecycle. Ingestion computes the
// checksum and the Part C path segment once, writes the content to the
// storage backend FIRST, and only then commits the document row, file
// history, and lifecycle event in one transaction. A backend write failure
// therefore never leaves a row referencing a missing blob; a transaction
// failure after a successful write triggers best-effort blob cleanup
// (an unreferenced blob may leak, a dangling row may not).
//
// Observability: the ingestion path is OpenTelemetry-instrumented; spans
// carry basket and document identifiers.
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/docex/go-docstore-backend/internal/domain"
	"github.com/docex/go-docstore-backend/internal/observability"
	"github.com/docex/go-docstore-backend/internal/pathres"
	"github.com/docex/go-docstore-backend/internal/repo"
	"github.com/docex/go-docstore-backend/internal/storage"
)

// AddDocumentInput carries everything needed to ingest one document.
type AddDocumentInput struct {
	BasketID     string
	Name         string
	DocumentType string
	Source       string
	// PurchaseOrderRef optionally links the document to a purchase order.
	PurchaseOrderRef string
	// Content is the raw document content; it is checksummed and written
	// to the storage backend.
	Content []byte
	// OriginalPath is the caller-side path recorded in file history.
	OriginalPath string
	// Extension overrides the extension derived from Name (optional).
	Extension string
	// Record is the structured content as JSON text (optional).
	Record string
	// AdditionalInfo is free-form JSON text (optional).
	AdditionalInfo string
	// KeepRawContent stores the content inline on the row in addition to
	// the backend blob. Intended for small documents only.
	KeepRawContent bool
}

// DocumentService coordinates document persistence, content storage, and
// the status lifecycle.
type DocumentService struct {
	// DB is the active tenant's boundary handle.
	DB *gorm.DB
	// Backend stores document content at resolved paths.
	Backend storage.Backend
	// Log receives structured lifecycle events.
	Log zerolog.Logger
}

// NewDocumentService constructs a DocumentService for one tenant boundary.
func NewDocumentService(db *gorm.DB, backend storage.Backend, log zerolog.Logger) *DocumentService {
	return &DocumentService{DB: db, Backend: backend, Log: log}
}

// Add ingests a document into a basket: UUID assignment, SHA-256 checksum,
// Part C resolution, backend write, then the row, one file-history entry,
// and a lifecycle event committed together. The stored path is captured
// verbatim and never recomputed from the basket's later configuration.
func (s *DocumentService) Add(ctx context.Context, in AddDocumentInput) (*domain.Document, error) {
	tr := otel.Tracer("services/DocumentService")
	ctx, span := tr.Start(ctx, "Add",
		trace.WithAttributes(attribute.String("basket.id", in.BasketID)),
	)
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, ErrEmptyName
	}
	if len(in.Content) == 0 {
		return nil, ErrEmptyContent
	}

	basket, err := repo.GetBasket(ctx, s.DB, in.BasketID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrBasketNotFound
	}
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	span.SetAttributes(attribute.String("document.id", id))

	sum := sha256.Sum256(in.Content)
	checksum := hex.EncodeToString(sum[:])

	// The extension moves behind the identity suffix, so the stem passed
	// into Part C must not carry it as well.
	stem := in.Name
	ext := in.Extension
	if i := strings.LastIndex(stem, "."); i > 0 && i < len(stem)-1 {
		if ext == "" {
			ext = stem[i+1:]
		}
		stem = stem[:i]
	}
	partC := pathres.DocumentSegment(stem, id, ext)

	// Filesystem roots already carry the tenant prefix; object stores get
	// the full Part A+B+C key. JoinUnderRoot guards against a component
	// repeating a segment the cached prefix already ends with.
	storedPath := pathres.JoinUnderRoot("", basket.PathPrefix, basket.PathSegment, partC)

	// Write-then-commit: the row is only committed after the backend
	// acknowledged the blob.
	if err := s.Backend.Put(ctx, storedPath, in.Content); err != nil {
		observability.DocumentsIngested.WithLabelValues("storage_error").Inc()
		return nil, err
	}

	doc := &domain.Document{
		ID:               id,
		BasketID:         basket.ID,
		Name:             in.Name,
		DocumentType:     in.DocumentType,
		Status:           domain.DocStatusReceived,
		Source:           in.Source,
		PurchaseOrderRef: in.PurchaseOrderRef,
		Checksum:         checksum,
		StoragePath:      storedPath,
		Record:           in.Record,
		AdditionalInfo:   in.AdditionalInfo,
	}
	if in.KeepRawContent {
		doc.RawContent = in.Content
	}

	payload, _ := json.Marshal(map[string]string{
		"name":          in.Name,
		"document_type": in.DocumentType,
		"checksum":      checksum,
	})
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateDocument(ctx, tx, doc); err != nil {
			return err
		}
		if err := repo.AppendFileHistory(ctx, tx, &domain.FileHistory{
			DocumentID:   id,
			OriginalPath: in.OriginalPath,
			InternalPath: storedPath,
			Checksum:     checksum,
		}); err != nil {
			return err
		}
		return appendEvent(ctx, tx, basket.ID, id, EventDocumentAdded, string(payload))
	})
	if err != nil {
		// The blob exists but no row will reference it; remove it
		// best-effort rather than leak a referencing row with no blob.
		if derr := s.Backend.Delete(ctx, storedPath); derr != nil {
			s.Log.Warn().Err(derr).Str("path", storedPath).Msg("orphan blob cleanup failed")
		}
		observability.DocumentsIngested.WithLabelValues("db_error").Inc()
		return nil, err
	}

	observability.DocumentsIngested.WithLabelValues("ok").Inc()
	observability.StorageBytesWritten.Add(float64(len(in.Content)))
	s.Log.Info().
		Str("basket_id", basket.ID).
		Str("document_id", id).
		Str("path", storedPath).
		Int("bytes", len(in.Content)).
		Msg("document ingested")
	return doc, nil
}

// Get fetches a document by ID, or ErrDocumentNotFound.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	d, err := repo.GetDocument(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrDocumentNotFound
	}
	return d, err
}

// GetContent reads a document's raw content back from the storage backend
// using the stored canonical path.
func (s *DocumentService) GetContent(ctx context.Context, id string) ([]byte, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Backend.Get(ctx, d.StoragePath)
}

// List returns documents of a basket matching the filter; see
// repo.DocumentFilter for filtering and sorting semantics.
func (s *DocumentService) List(ctx context.Context, basketID string, f repo.DocumentFilter, sortBy string, desc bool, offset, limit int) ([]domain.Document, error) {
	return repo.ListDocuments(ctx, s.DB, basketID, f, sortBy, desc, offset, limit)
}

// Count returns the number of documents matching the filter.
func (s *DocumentService) Count(ctx context.Context, basketID string, f repo.DocumentFilter) (int64, error) {
	return repo.CountDocuments(ctx, s.DB, basketID, f)
}

// FindByMetadata returns the documents of a basket carrying the given
// metadata key (and value, when non-empty).
func (s *DocumentService) FindByMetadata(ctx context.Context, basketID, key, value string) ([]domain.Document, error) {
	return repo.ListDocuments(ctx, s.DB, basketID, repo.DocumentFilter{
		MetadataKey:   key,
		MetadataValue: value,
	}, repo.SortByCreatedAt, false, 0, 0)
}

// Document status transitions allowed by the lifecycle.
var docTransitions = map[string][]string{
	domain.DocStatusReceived:   {domain.DocStatusProcessing},
	domain.DocStatusProcessing: {domain.DocStatusProcessed, domain.DocStatusFailed},
	domain.DocStatusFailed:     {domain.DocStatusProcessing},
}

// transition moves a document to a new status after validating the edge
// against the lifecycle.
func (s *DocumentService) transition(ctx context.Context, id, to, lastError string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := repo.GetDocument(ctx, tx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrDocumentNotFound
		}
		if err != nil {
			return err
		}
		allowed := false
		for _, next := range docTransitions[d.Status] {
			if next == to {
				allowed = true
				break
			}
		}
		if !allowed {
			return ErrInvalidTransition
		}
		return repo.UpdateDocumentStatus(ctx, tx, id, to, lastError)
	})
}

// StartProcessing moves RECEIVED (or retried FAILED) to PROCESSING.
func (s *DocumentService) StartProcessing(ctx context.Context, id string) error {
	return s.transition(ctx, id, domain.DocStatusProcessing, "")
}

// MarkProcessed moves PROCESSING to the terminal PROCESSED status.
func (s *DocumentService) MarkProcessed(ctx context.Context, id string) error {
	return s.transition(ctx, id, domain.DocStatusProcessed, "")
}

// MarkFailed moves PROCESSING to FAILED, incrementing processing_attempts
// and recording lastError.
func (s *DocumentService) MarkFailed(ctx context.Context, id, lastError string) error {
	if lastError == "" {
		lastError = "processing failed"
	}
	return s.transition(ctx, id, domain.DocStatusFailed, lastError)
}

// Retry moves a FAILED document back to PROCESSING and clears last_error.
func (s *DocumentService) Retry(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := repo.GetDocument(ctx, tx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrDocumentNotFound
		}
		if err != nil {
			return err
		}
		if d.Status != domain.DocStatusFailed {
			return ErrInvalidTransition
		}
		if err := repo.UpdateDocumentStatus(ctx, tx, id, domain.DocStatusProcessing, ""); err != nil {
			return err
		}
		return repo.ClearDocumentError(ctx, tx, id)
	})
}

// History returns the document's append-only file history, oldest first.
func (s *DocumentService) History(ctx context.Context, id string) ([]domain.FileHistory, error) {
	return repo.ListFileHistory(ctx, s.DB, id)
}

// Delete removes a document and everything it owns (history, operations,
// dependency edges, metadata) in one transaction, then removes the backend
// blob best-effort.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	var path string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d, err := repo.GetDocument(ctx, tx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrDocumentNotFound
		}
		if err != nil {
			return err
		}
		path = d.StoragePath
		if err := cascadeDeleteDocuments(ctx, tx, []string{id}); err != nil {
			return err
		}
		return appendEvent(ctx, tx, d.BasketID, id, EventDocumentRemoved, "")
	})
	if err != nil {
		return err
	}

	if path != "" {
		if derr := s.Backend.Delete(ctx, path); derr != nil {
			s.Log.Warn().Err(derr).Str("path", path).Msg("blob cleanup failed")
		}
	}
	return nil
}
