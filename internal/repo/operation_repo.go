// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Operation
// ledger and its dependency edges. Cycle detection lives in the service
// layer (services.OperationTracker); this file only persists rows and
// loads the adjacency data the check needs.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/docex/go-docstore-backend/internal/domain"
)

// CreateOperation inserts an operation row.
func CreateOperation(ctx context.Context, db *gorm.DB, op *domain.Operation) error {
	if op.CreatedAt.IsZero() {
		op.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(op).Error
}

// GetOperation fetches an operation by ID, or ErrNotFound.
func GetOperation(ctx context.Context, db *gorm.DB, id string) (*domain.Operation, error) {
	var op domain.Operation
	if err := db.WithContext(ctx).First(&op, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &op, nil
}

// ListOperations returns all operations of a document, oldest first.
func ListOperations(ctx context.Context, db *gorm.DB, documentID string) ([]domain.Operation, error) {
	var out []domain.Operation
	err := db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}

// CreateDependency inserts one dependency edge. The (operation_id,
// depends_on_id) pair is unique; re-declaring an existing edge surfaces
// ErrDuplicate.
func CreateDependency(ctx context.Context, db *gorm.DB, edge *domain.OperationDependency) error {
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(edge).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// ListDependencies returns every dependency edge whose endpoints belong to
// the given document's operations. The service layer feeds these into the
// reachability check before inserting new edges.
func ListDependencies(ctx context.Context, db *gorm.DB, documentID string) ([]domain.OperationDependency, error) {
	var out []domain.OperationDependency
	err := db.WithContext(ctx).
		Joins("JOIN operations ops ON ops.id = operation_dependencies.operation_id").
		Where("ops.document_id = ?", documentID).
		Find(&out).Error
	return out, err
}

// UpdateOperationStatus transitions an operation's status, setting
// completed_at for terminal statuses and recording errorText on failure.
// Returns ErrNotFound if the operation does not exist.
func UpdateOperationStatus(ctx context.Context, db *gorm.DB, id, status, errorText string) error {
	updates := map[string]any{"status": status}
	switch status {
	case domain.OpStatusCompleted, domain.OpStatusFailed:
		now := time.Now().UTC()
		updates["completed_at"] = &now
	}
	if errorText != "" {
		updates["error_text"] = errorText
	}
	res := db.WithContext(ctx).
		Model(&domain.Operation{}).
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

// ListRunnableOperations returns the PENDING operations of a document
// whose predecessors (if any) are all COMPLETED.
func ListRunnableOperations(ctx context.Context, db *gorm.DB, documentID string) ([]domain.Operation, error) {
	var out []domain.Operation
	err := db.WithContext(ctx).
		Where("document_id = ? AND status = ?", documentID, domain.OpStatusPending).
		Where(`NOT EXISTS (
			SELECT 1 FROM operation_dependencies d
			JOIN operations pred ON pred.id = d.depends_on_id
			WHERE d.operation_id = operations.id AND pred.status <> ?
		)`, domain.OpStatusCompleted).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}
