// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// DocumentMetadata model. Writes are upserts keyed on (document_id, key);
// duplicate rows for the same pair can never exist.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/docex/go-docstore-backend/internal/domain"
)

// UpsertMetadata writes one key-value attachment. If a row for
// (document_id, key) already exists, its value and updated_at are
// replaced; metadata_type is preserved unless overrideType is true.
func UpsertMetadata(ctx context.Context, db *gorm.DB, m *domain.DocumentMetadata, overrideType bool) error {
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	if m.MetadataType == "" {
		m.MetadataType = domain.MetadataTypeCustom
	}

	assignments := []string{"value", "updated_at"}
	if overrideType {
		assignments = append(assignments, "metadata_type")
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns(assignments),
		}).
		Create(m).Error
}

// GetMetadata returns the stored value for (document_id, key), or
// ErrNotFound.
func GetMetadata(ctx context.Context, db *gorm.DB, documentID, key string) (*domain.DocumentMetadata, error) {
	var m domain.DocumentMetadata
	err := db.WithContext(ctx).
		Where("document_id = ? AND key = ?", documentID, key).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMetadata returns every attachment of a document, ordered by key.
func ListMetadata(ctx context.Context, db *gorm.DB, documentID string) ([]domain.DocumentMetadata, error) {
	var out []domain.DocumentMetadata
	err := db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("key asc").
		Find(&out).Error
	return out, err
}

// FindMetadata queries attachments across documents by key and optional
// value equality, using the (key, value) composite index.
func FindMetadata(ctx context.Context, db *gorm.DB, key, value string) ([]domain.DocumentMetadata, error) {
	q := db.WithContext(ctx).Where("key = ?", key)
	if value != "" {
		q = q.Where("value = ?", value)
	}
	var out []domain.DocumentMetadata
	err := q.Find(&out).Error
	return out, err
}

// DeleteMetadata removes one attachment. Returns ErrNotFound when no row
// matched.
func DeleteMetadata(ctx context.Context, db *gorm.DB, documentID, key string) error {
	res := db.WithContext(ctx).
		Where("document_id = ? AND key = ?", documentID, key).
		Delete(&domain.DocumentMetadata{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
