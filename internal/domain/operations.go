// Package domain – operation ledger models.
//
// Operations record processing steps applied to a document. Dependency edges
// between operations of the same document form a directed acyclic graph; the
// acyclicity invariant is enforced in the service layer before edges are
// inserted (see services.OperationTracker).
package domain

import "time"

// Operation statuses.
const (
	OpStatusPending   = "PENDING"
	OpStatusRunning   = "RUNNING"
	OpStatusCompleted = "COMPLETED"
	OpStatusFailed    = "FAILED"
)

// Operation represents one recorded processing step against a document.
// The tracker is a ledger and dependency gate only: it never schedules
// execution itself.
type Operation struct {
	ID            string     `json:"id"             gorm:"type:char(36);primaryKey"`
	DocumentID    string     `json:"document_id"    gorm:"type:char(36);not null;index:idx_op_document"`
	OperationType string     `json:"operation_type" gorm:"type:varchar(64);not null"`
	Status        string     `json:"status"         gorm:"type:varchar(16);not null;check:status IN ('PENDING','RUNNING','COMPLETED','FAILED')"`
	Details       string     `json:"details"        gorm:"type:text"`
	ErrorText     string     `json:"error_text"     gorm:"type:text"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`

	// Document is the owning document. Operations are cascade-deleted with it.
	Document Document `json:"-" gorm:"foreignKey:DocumentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Operation.
func (Operation) TableName() string { return "operations" }

// OperationDependency is a directed edge: OperationID depends on DependsOnID.
// Both endpoints always belong to the same document's graph; edges never
// cross documents.
type OperationDependency struct {
	ID          uint      `json:"id"            gorm:"primaryKey;autoIncrement"`
	OperationID string    `json:"operation_id"  gorm:"type:char(36);not null;uniqueIndex:ux_op_dep,priority:1;index"`
	DependsOnID string    `json:"depends_on_id" gorm:"type:char(36);not null;uniqueIndex:ux_op_dep,priority:2;index"`
	CreatedAt   time.Time `json:"created_at"`

	// Operation is the dependent edge endpoint; deleting it removes the edge.
	Operation Operation `json:"-" gorm:"foreignKey:OperationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	// DependsOn is the predecessor operation.
	DependsOn Operation `json:"-" gorm:"foreignKey:DependsOnID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for OperationDependency.
func (OperationDependency) TableName() string { return "operation_dependencies" }
