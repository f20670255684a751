// Package services – MetadataService
//
// This file implements the key-value attachment store per document.
// Writes are upserts on the unique (document_id, key) pair: a second Set
// for the same pair replaces the value and updated_at, preserving the
// metadata_type recorded at first insert unless explicitly overridden.
package services

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/docex/go-docstore-backend/internal/domain"
	"github.com/docex/go-docstore-backend/internal/repo"
)

// MetadataService manages document metadata within one tenant boundary.
type MetadataService struct {
	DB *gorm.DB
}

// NewMetadataService constructs a MetadataService over a boundary handle.
func NewMetadataService(db *gorm.DB) *MetadataService {
	return &MetadataService{DB: db}
}

// Set upserts (documentID, key) with the JSON encoding of value, tagging
// first inserts as "custom". The document must exist.
func (s *MetadataService) Set(ctx context.Context, documentID, key string, value any) error {
	return s.set(ctx, documentID, key, value, domain.MetadataTypeCustom, false)
}

// SetTyped upserts (documentID, key) and forces metadataType on the row
// even when it already exists.
func (s *MetadataService) SetTyped(ctx context.Context, documentID, key string, value any, metadataType string) error {
	return s.set(ctx, documentID, key, value, metadataType, true)
}

func (s *MetadataService) set(ctx context.Context, documentID, key string, value any, metadataType string, overrideType bool) error {
	if key == "" {
		return ErrEmptyName
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if _, err := repo.GetDocument(ctx, s.DB, documentID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrDocumentNotFound
		}
		return err
	}
	return repo.UpsertMetadata(ctx, s.DB, &domain.DocumentMetadata{
		DocumentID:   documentID,
		Key:          key,
		Value:        string(raw),
		MetadataType: metadataType,
	}, overrideType)
}

// Get unmarshals the stored JSON value for (documentID, key) into out.
// Missing pairs yield ErrMetadataNotFound.
func (s *MetadataService) Get(ctx context.Context, documentID, key string, out any) error {
	m, err := repo.GetMetadata(ctx, s.DB, documentID, key)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrMetadataNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(m.Value), out)
}

// GetRaw returns the stored row for (documentID, key) without decoding.
func (s *MetadataService) GetRaw(ctx context.Context, documentID, key string) (*domain.DocumentMetadata, error) {
	m, err := repo.GetMetadata(ctx, s.DB, documentID, key)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrMetadataNotFound
	}
	return m, err
}

// List returns every attachment of a document, ordered by key.
func (s *MetadataService) List(ctx context.Context, documentID string) ([]domain.DocumentMetadata, error) {
	return repo.ListMetadata(ctx, s.DB, documentID)
}

// Find queries attachments across documents by key and optional value
// equality. Values are compared against the same JSON encoding Set
// produces.
func (s *MetadataService) Find(ctx context.Context, key string, value any) ([]domain.DocumentMetadata, error) {
	encoded := ""
	if value != nil {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		encoded = string(raw)
	}
	return repo.FindMetadata(ctx, s.DB, key, encoded)
}

// Delete removes one attachment, or ErrMetadataNotFound.
func (s *MetadataService) Delete(ctx context.Context, documentID, key string) error {
	err := repo.DeleteMetadata(ctx, s.DB, documentID, key)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrMetadataNotFound
	}
	return err
}
