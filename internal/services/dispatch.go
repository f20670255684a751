// Package services – operation handler dispatch.
//
// Dispatch maps operations to handlers through an ordered list of pure
// predicate-to-handler rules evaluated first-match-wins. The rule list is
// injected at construction and never mutated afterwards; the tracker stays
// agnostic of which handler runs.
package services

import (
	"context"

	"github.com/docex/go-docstore-backend/internal/domain"
)

// Handler executes one operation and returns its error, if any.
type Handler func(ctx context.Context, op domain.Operation) error

// Rule pairs a pure predicate with the handler to run when it matches.
type Rule struct {
	// Match decides whether this rule handles op. It must be free of side
	// effects.
	Match func(op domain.Operation) bool
	// Handle runs the operation.
	Handle Handler
}

// TypeRule builds a rule matching one operation type exactly.
func TypeRule(operationType string, h Handler) Rule {
	return Rule{
		Match:  func(op domain.Operation) bool { return op.OperationType == operationType },
		Handle: h,
	}
}

// Dispatcher routes operations to handlers. The zero value matches
// nothing.
type Dispatcher struct {
	rules []Rule
}

// NewDispatcher fixes the rule order at construction.
func NewDispatcher(rules ...Rule) *Dispatcher {
	return &Dispatcher{rules: rules}
}

// Dispatch runs the first rule whose predicate matches op, or returns
// ErrNoHandler when none does.
func (d *Dispatcher) Dispatch(ctx context.Context, op domain.Operation) error {
	for _, r := range d.rules {
		if r.Match(op) {
			return r.Handle(ctx, op)
		}
	}
	return ErrNoHandler
}

// ProcessRunnable drains a document's runnable operations once: each is
// started, dispatched, and marked completed or failed with the handler's
// error. It returns the number of operations attempted. Completing one
// batch can unlock successors; callers poll until zero.
func (t *OperationTracker) ProcessRunnable(ctx context.Context, documentID string, d *Dispatcher) (int, error) {
	ops, err := t.Runnable(ctx, documentID)
	if err != nil {
		return 0, err
	}
	for i, op := range ops {
		if err := t.Start(ctx, op.ID); err != nil {
			return i, err
		}
		if herr := d.Dispatch(ctx, op); herr != nil {
			if err := t.MarkFailed(ctx, op.ID, herr.Error()); err != nil {
				return i, err
			}
			continue
		}
		if err := t.MarkCompleted(ctx, op.ID); err != nil {
			return i, err
		}
	}
	return len(ops), nil
}
