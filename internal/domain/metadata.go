// Package domain – document metadata and lifecycle event models.
package domain

import "time"

// Metadata type tags.
const (
	MetadataTypeCustom = "custom"
	MetadataTypeSystem = "system"
)

// DocEvent statuses.
const (
	EventStatusPending   = "PENDING"
	EventStatusProcessed = "PROCESSED"
	EventStatusFailed    = "FAILED"
)

// DocumentMetadata is one key-value attachment on a document. The business
// key (document_id, key) is unique: writes are upserts, never duplicate
// inserts. Values are stored as JSON text.
type DocumentMetadata struct {
	ID           uint      `json:"id"            gorm:"primaryKey;autoIncrement"`
	DocumentID   string    `json:"document_id"   gorm:"type:char(36);not null;uniqueIndex:ux_doc_meta,priority:1;index:idx_meta_doc_key_value,priority:1"`
	Key          string    `json:"key"           gorm:"column:key;type:varchar(255);not null;uniqueIndex:ux_doc_meta,priority:2;index:idx_meta_key_value,priority:1;index:idx_meta_doc_key_value,priority:2"`
	Value        string    `json:"value"         gorm:"type:text;not null;index:idx_meta_key_value,priority:2;index:idx_meta_doc_key_value,priority:3"`
	MetadataType string    `json:"metadata_type" gorm:"type:varchar(32);not null;default:'custom'"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Document is the owning document. Metadata rows are cascade-deleted.
	Document Document `json:"-" gorm:"foreignKey:DocumentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for DocumentMetadata.
func (DocumentMetadata) TableName() string { return "document_metadata" }

// DocEvent is an append-only record of a basket/document lifecycle event
// for downstream consumers. References to baskets and documents are weak:
// deleting a basket or document leaves its historical events in place, so
// no foreign key constraints are declared here.
//
// Delivery is at-least-once: the core guarantees durability of the PENDING
// row; an external consumer transitions it to PROCESSED or FAILED.
type DocEvent struct {
	ID           uint      `json:"id"            gorm:"primaryKey;autoIncrement"`
	EventID      string    `json:"event_id"      gorm:"type:char(36);not null;uniqueIndex:ux_event_id"`
	BasketID     string    `json:"basket_id"     gorm:"type:char(36);not null;index"`
	DocumentID   string    `json:"document_id"   gorm:"type:char(36);index"`
	EventType    string    `json:"event_type"    gorm:"type:varchar(64);not null"`
	Payload      string    `json:"payload"       gorm:"type:text"`
	Status       string    `json:"status"        gorm:"type:varchar(16);not null;index;check:status IN ('PENDING','PROCESSED','FAILED')"`
	ErrorMessage string    `json:"error_message" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for DocEvent.
func (DocEvent) TableName() string { return "doc_events" }
