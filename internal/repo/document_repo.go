// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Document
// and FileHistory models, including the filtered listing queries backing
// list_documents / find_documents_by_metadata / count_documents.
package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/docex/go-docstore-backend/internal/domain"
)

// DocumentFilter narrows document listing and counting queries. Zero-value
// fields are ignored. MetadataKey/MetadataValue join against the
// document_metadata table via its composite index.
type DocumentFilter struct {
	Status        string
	DocumentType  string
	MetadataKey   string
	MetadataValue string
}

// Document sort keys accepted by ListDocuments.
const (
	SortByCreatedAt = "created_at"
	SortByUpdatedAt = "updated_at"
	SortByName      = "name"
)

// CreateDocument inserts a fully populated document row.
func CreateDocument(ctx context.Context, db *gorm.DB, d *domain.Document) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(d).Error
}

// GetDocument fetches a document by ID, or ErrNotFound.
func GetDocument(ctx context.Context, db *gorm.DB, id string) (*domain.Document, error) {
	var d domain.Document
	if err := db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// documentQuery composes the shared WHERE clause for listing and counting.
func documentQuery(db *gorm.DB, basketID string, f DocumentFilter) *gorm.DB {
	q := db.Model(&domain.Document{}).Where("documents.basket_id = ?", basketID)
	if f.Status != "" {
		q = q.Where("documents.status = ?", f.Status)
	}
	if f.DocumentType != "" {
		q = q.Where("documents.document_type = ?", f.DocumentType)
	}
	if f.MetadataKey != "" {
		q = q.Joins("JOIN document_metadata dm ON dm.document_id = documents.id").
			Where("dm.key = ?", f.MetadataKey)
		if f.MetadataValue != "" {
			q = q.Where("dm.value = ?", f.MetadataValue)
		}
	}
	return q
}

// ListDocuments returns documents of a basket matching the filter, sorted
// by one of the allowed keys. Unknown sort keys fall back to created_at;
// desc selects descending order. Offset/limit paginate; limit <= 0 means
// no limit.
func ListDocuments(ctx context.Context, db *gorm.DB, basketID string, f DocumentFilter, sortBy string, desc bool, offset, limit int) ([]domain.Document, error) {
	switch sortBy {
	case SortByCreatedAt, SortByUpdatedAt, SortByName:
	default:
		sortBy = SortByCreatedAt
	}
	dir := "asc"
	if desc {
		dir = "desc"
	}

	q := documentQuery(db.WithContext(ctx), basketID, f).
		Order(fmt.Sprintf("documents.%s %s", sortBy, dir))
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []domain.Document
	err := q.Find(&out).Error
	return out, err
}

// CountDocuments returns the number of documents matching the filter.
func CountDocuments(ctx context.Context, db *gorm.DB, basketID string, f DocumentFilter) (int64, error) {
	var total int64
	err := documentQuery(db.WithContext(ctx), basketID, f).Count(&total).Error
	return total, err
}

// UpdateDocumentStatus transitions a document's status and optionally
// records a failure: when lastError is non-empty the processing_attempts
// counter increments and last_error is replaced. Returns ErrNotFound if
// the document does not exist.
func UpdateDocumentStatus(ctx context.Context, db *gorm.DB, id, status, lastError string) error {
	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if lastError != "" {
		updates["last_error"] = lastError
		updates["processing_attempts"] = gorm.Expr("processing_attempts + 1")
	}
	res := db.WithContext(ctx).
		Model(&domain.Document{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearDocumentError blanks last_error, used when a failed document is
// retried.
func ClearDocumentError(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).
		Model(&domain.Document{}).
		Where("id = ?", id).
		Update("last_error", "").Error
}

// DeleteDocument removes a single document row.
func DeleteDocument(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Delete(&domain.Document{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDocumentIDs returns the IDs of every document in a basket; used by
// the cascading basket delete.
func ListDocumentIDs(ctx context.Context, db *gorm.DB, basketID string) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&domain.Document{}).
		Where("basket_id = ?", basketID).
		Pluck("id", &ids).Error
	return ids, err
}

// AppendFileHistory inserts one append-only history row for an ingestion
// event. History rows are never updated.
func AppendFileHistory(ctx context.Context, db *gorm.DB, h *domain.FileHistory) error {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(h).Error
}

// ListFileHistory returns a document's history, oldest first.
func ListFileHistory(ctx context.Context, db *gorm.DB, documentID string) ([]domain.FileHistory, error) {
	var out []domain.FileHistory
	err := db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}
