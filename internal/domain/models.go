// Package domain defines the persistence models for baskets, documents, and
// file history. These types are mapped with GORM and form the core data layer
// of the document store. Every tenant isolation boundary hosts its own copy
// of these tables; the tenant registry itself (domain.Tenant) lives only in
// the bootstrap tenant's boundary.
package domain

import (
	"time"
)

// Document lifecycle statuses. A document enters RECEIVED on ingestion and
// moves through PROCESSING to a terminal PROCESSED, or to FAILED from which
// a retry may move it back to PROCESSING.
const (
	DocStatusReceived   = "RECEIVED"
	DocStatusProcessing = "PROCESSING"
	DocStatusProcessed  = "PROCESSED"
	DocStatusFailed     = "FAILED"
)

// Basket statuses.
const (
	BasketStatusActive   = "active"
	BasketStatusInactive = "inactive"
)

// Storage backend identifiers stored in a basket's configuration.
const (
	StorageBackendFilesystem  = "filesystem"
	StorageBackendObjectStore = "object_store"
)

// Basket represents a named, tenant-scoped collection of documents sharing
// one storage configuration. The storage path prefix components (Part A and
// Part B) are resolved once at creation time and cached on the row; later
// configuration changes never rewrite them, so documents already ingested
// keep their original resolved paths.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name: unique within the tenant (enforced by unique index).
//   - StorageBackend: "filesystem" or "object_store".
//   - PathPrefix: cached Part A ("{tenant}/{namespace}/{prefix}/"), empty
//     for filesystem backends whose root already encodes that scope.
//   - PathSegment: cached Part B ("{sanitized_name}_{last4(id)}/").
//   - Status: "active" or "inactive".
type Basket struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	Name           string    `json:"name"            gorm:"type:varchar(255);not null;uniqueIndex:ux_basket_name"`
	Description    string    `json:"description"     gorm:"type:text"`
	StorageBackend string    `json:"storage_backend" gorm:"type:varchar(32);not null"`
	PathPrefix     string    `json:"path_prefix"     gorm:"type:varchar(512);not null;default:''"`
	PathSegment    string    `json:"path_segment"    gorm:"type:varchar(512);not null"`
	Status         string    `json:"status"          gorm:"type:varchar(16);not null;default:'active'"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for Basket.
func (Basket) TableName() string { return "docbasket" }

// Document represents one ingested document inside a basket. The storage
// path is computed exactly once at ingestion (Part B + Part C relative to
// the backend root, or Part A + B + C for object stores) and stored
// verbatim in StoragePath; it is never recomputed from the basket's current
// configuration.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - BasketID: foreign key to the owning basket (indexed, cascade delete).
//   - Status: RECEIVED | PROCESSING | PROCESSED | FAILED.
//   - Checksum: SHA-256 hex digest of the raw content at ingestion.
//   - StoragePath: canonical backend path, captured at write time.
//   - Record: structured content as a JSON document.
//   - RawContent: optional inline raw content (small documents only; large
//     payloads live solely behind StoragePath).
//   - ProcessingAttempts / LastError: failure bookkeeping for retries.
type Document struct {
	ID                 string    `json:"id"                  gorm:"type:char(36);primaryKey"`
	BasketID           string    `json:"basket_id"           gorm:"type:char(36);not null;index:idx_doc_basket;index:idx_doc_basket_status,priority:1;index:idx_doc_basket_type,priority:1;index:idx_doc_basket_created,priority:1"`
	Name               string    `json:"name"                gorm:"type:varchar(512);not null"`
	DocumentType       string    `json:"document_type"       gorm:"type:varchar(64);not null;index:idx_doc_basket_type,priority:2"`
	Status             string    `json:"status"              gorm:"type:varchar(16);not null;index:idx_doc_basket_status,priority:2;check:status IN ('RECEIVED','PROCESSING','PROCESSED','FAILED')"`
	Source             string    `json:"source"              gorm:"type:varchar(255)"`
	PurchaseOrderRef   string    `json:"purchase_order_ref"  gorm:"type:varchar(255)"`
	Checksum           string    `json:"checksum"            gorm:"type:char(64);not null"`
	StoragePath        string    `json:"storage_path"        gorm:"type:varchar(1024);not null"`
	Record             string    `json:"record"              gorm:"type:text"`
	RawContent         []byte    `json:"-"                   gorm:"type:blob"`
	ProcessingAttempts int       `json:"processing_attempts" gorm:"not null;default:0"`
	LastError          string    `json:"last_error"          gorm:"type:text"`
	AdditionalInfo     string    `json:"additional_info"     gorm:"type:text"`
	CreatedAt          time.Time `json:"created_at"          gorm:"index:idx_doc_basket_created,priority:2"`
	UpdatedAt          time.Time `json:"updated_at"`

	// Basket is the owning collection. Documents are cascade-deleted when
	// their basket is removed.
	Basket Basket `json:"-" gorm:"foreignKey:BasketID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Document.
func (Document) TableName() string { return "documents" }

// FileHistory is an append-only audit record of every original-path to
// internal-path mapping produced by an ingestion event. Rows are never
// updated; renames and re-ingestions append new rows.
type FileHistory struct {
	ID           uint      `json:"id"            gorm:"primaryKey;autoIncrement"`
	DocumentID   string    `json:"document_id"   gorm:"type:char(36);not null;index"`
	OriginalPath string    `json:"original_path" gorm:"type:varchar(1024);not null"`
	InternalPath string    `json:"internal_path" gorm:"type:varchar(1024);not null"`
	Checksum     string    `json:"checksum"      gorm:"type:char(64);not null"`
	CreatedAt    time.Time `json:"created_at"`

	// Document is the owning document. History is cascade-deleted with it.
	Document Document `json:"-" gorm:"foreignKey:DocumentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for FileHistory.
func (FileHistory) TableName() string { return "file_history" }
