// Package services – OperationTracker
//
// This file implements the operation ledger: one row per processing step
// applied to a document, with dependency edges forming a per-document DAG.
// The tracker is a ledger and dependency gate only; execution is driven by
// an external pipeline that polls Runnable.
//
// Acyclicity is enforced before any edge insert with a reachability check
// over the document's existing edges; the check runs inside a transaction
// that locks the document row, so concurrent edge additions for the same
// document serialize and cannot race the check.
package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/docex/go-docstore-backend/internal/domain"
	"github.com/docex/go-docstore-backend/internal/observability"
	"github.com/docex/go-docstore-backend/internal/repo"
)

// OperationTracker records processing operations and their dependency
// edges for documents of one tenant boundary.
type OperationTracker struct {
	DB *gorm.DB
}

// NewOperationTracker constructs a tracker over a tenant boundary handle.
func NewOperationTracker(db *gorm.DB) *OperationTracker {
	return &OperationTracker{DB: db}
}

// Declare creates an operation with status PENDING plus one dependency
// edge per listed predecessor. Every predecessor must exist and belong to
// the same document (ErrOperationNotFound otherwise); an edge that would
// create a cycle fails with ErrCyclicDependency and leaves the graph
// unchanged (the transaction rolls back).
func (t *OperationTracker) Declare(ctx context.Context, documentID, operationType, details string, dependsOn []string) (*domain.Operation, error) {
	op := &domain.Operation{
		ID:            uuid.NewString(),
		DocumentID:    documentID,
		OperationType: operationType,
		Status:        domain.OpStatusPending,
		Details:       details,
	}

	err := t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockDocument(ctx, tx, documentID); err != nil {
			return err
		}
		ops, err := repo.ListOperations(ctx, tx, documentID)
		if err != nil {
			return err
		}
		known := make(map[string]bool, len(ops))
		for _, o := range ops {
			known[o.ID] = true
		}
		for _, dep := range dependsOn {
			if !known[dep] {
				return ErrOperationNotFound
			}
		}

		if err := repo.CreateOperation(ctx, tx, op); err != nil {
			return err
		}
		for _, dep := range dependsOn {
			edge := &domain.OperationDependency{OperationID: op.ID, DependsOnID: dep}
			if err := repo.CreateDependency(ctx, tx, edge); err != nil && !errors.Is(err, repo.ErrDuplicate) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.OperationsDeclared.Inc()
	return op, nil
}

// AddDependency inserts one edge between two existing operations of the
// same document. This is the path on which cycles can actually form:
// the new edge operationID -> dependsOnID closes a cycle exactly when
// operationID is already reachable from dependsOnID.
func (t *OperationTracker) AddDependency(ctx context.Context, operationID, dependsOnID string) error {
	if operationID == dependsOnID {
		return ErrCyclicDependency
	}
	return t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		op, err := repo.GetOperation(ctx, tx, operationID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrOperationNotFound
		}
		if err != nil {
			return err
		}
		dep, err := repo.GetOperation(ctx, tx, dependsOnID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrOperationNotFound
		}
		if err != nil {
			return err
		}
		if dep.DocumentID != op.DocumentID {
			return ErrOperationNotFound
		}

		if err := lockDocument(ctx, tx, op.DocumentID); err != nil {
			return err
		}
		edges, err := repo.ListDependencies(ctx, tx, op.DocumentID)
		if err != nil {
			return err
		}
		if reachable(edges, dependsOnID, operationID) {
			return ErrCyclicDependency
		}

		err = repo.CreateDependency(ctx, tx, &domain.OperationDependency{
			OperationID: operationID,
			DependsOnID: dependsOnID,
		})
		if errors.Is(err, repo.ErrDuplicate) {
			return nil
		}
		return err
	})
}

// Start moves a PENDING operation to RUNNING.
func (t *OperationTracker) Start(ctx context.Context, operationID string) error {
	return t.setStatus(ctx, operationID, domain.OpStatusPending, domain.OpStatusRunning, "")
}

// MarkCompleted moves a PENDING or RUNNING operation to COMPLETED and sets
// completed_at.
func (t *OperationTracker) MarkCompleted(ctx context.Context, operationID string) error {
	return t.setStatus(ctx, operationID, "", domain.OpStatusCompleted, "")
}

// MarkFailed moves an operation to FAILED, recording errorText and
// completed_at.
func (t *OperationTracker) MarkFailed(ctx context.Context, operationID, errorText string) error {
	return t.setStatus(ctx, operationID, "", domain.OpStatusFailed, errorText)
}

// setStatus validates the transition (when from is non-empty) and applies
// it. Terminal operations are immutable.
func (t *OperationTracker) setStatus(ctx context.Context, operationID, from, to, errorText string) error {
	return t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		op, err := repo.GetOperation(ctx, tx, operationID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrOperationNotFound
		}
		if err != nil {
			return err
		}
		if op.Status == domain.OpStatusCompleted || op.Status == domain.OpStatusFailed {
			return ErrInvalidTransition
		}
		if from != "" && op.Status != from {
			return ErrInvalidTransition
		}
		return repo.UpdateOperationStatus(ctx, tx, operationID, to, errorText)
	})
}

// Runnable returns the PENDING operations of a document whose
// predecessors are all COMPLETED. An operation with unmet dependencies is
// never reported.
func (t *OperationTracker) Runnable(ctx context.Context, documentID string) ([]domain.Operation, error) {
	return repo.ListRunnableOperations(ctx, t.DB, documentID)
}

// List returns all operations of a document, oldest first.
func (t *OperationTracker) List(ctx context.Context, documentID string) ([]domain.Operation, error) {
	return repo.ListOperations(ctx, t.DB, documentID)
}

// lockDocument takes the document's row lock, serializing graph mutations
// per document. SQLite has no FOR UPDATE and serializes writers at the
// database level already; the locking clause is applied for Postgres only.
func lockDocument(ctx context.Context, tx *gorm.DB, documentID string) error {
	q := tx.WithContext(ctx)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var d domain.Document
	err := q.First(&d, "id = ?", documentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrDocumentNotFound
	}
	return err
}

// reachable walks depends-on edges from start and reports whether target
// is reachable. Edges point from an operation to its predecessor, so the
// walk follows "start depends on ... depends on target".
func reachable(edges []domain.OperationDependency, start, target string) bool {
	adj := make(map[string][]string, len(edges))
	for _, e := range edges {
		adj[e.OperationID] = append(adj[e.OperationID], e.DependsOnID)
	}
	seen := map[string]bool{start: true}
	stack := []string{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == target {
			return true
		}
		for _, next := range adj[cur] {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}
