package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/docex/go-docstore-backend/internal/domain"
)

func newTrackerEnv(t *testing.T) (*OperationTracker, *domain.Document, *gorm.DB) {
	t.Helper()
	baskets, db, _ := newBasketSvc(t)
	ctx := context.Background()

	b, err := baskets.Create(ctx, "invoices", "")
	if err != nil {
		t.Fatalf("Create basket: %v", err)
	}
	docs := NewDocumentService(db, baskets.Backend, zerolog.Nop())
	d, err := docs.Add(ctx, AddDocumentInput{BasketID: b.ID, Name: "x.pdf", Content: []byte("x")})
	if err != nil {
		t.Fatalf("Add document: %v", err)
	}
	return NewOperationTracker(db), d, db
}

func TestOperationTracker_Declare_WithDependencies(t *testing.T) {
	tracker, d, _ := newTrackerEnv(t)
	ctx := context.Background()

	extract, err := tracker.Declare(ctx, d.ID, "extract", `{"engine":"ocr"}`, nil)
	if err != nil {
		t.Fatalf("Declare extract: %v", err)
	}
	if extract.Status != domain.OpStatusPending || extract.DocumentID != d.ID {
		t.Fatalf("unexpected operation: %+v", extract)
	}

	validate, err := tracker.Declare(ctx, d.ID, "validate", "", []string{extract.ID})
	if err != nil {
		t.Fatalf("Declare validate: %v", err)
	}

	ops, err := tracker.List(ctx, d.ID)
	if err != nil || len(ops) != 2 {
		t.Fatalf("List = (%d, %v); want 2", len(ops), err)
	}

	runnable, err := tracker.Runnable(ctx, d.ID)
	if err != nil {
		t.Fatalf("Runnable: %v", err)
	}
	if len(runnable) != 1 || runnable[0].ID != extract.ID {
		t.Fatalf("runnable = %+v; want [extract]", runnable)
	}
	_ = validate
}

func TestOperationTracker_Declare_UnknownDependency(t *testing.T) {
	tracker, d, db := newTrackerEnv(t)
	ctx := context.Background()

	if _, err := tracker.Declare(ctx, d.ID, "validate", "", []string{"no-such-op"}); err != ErrOperationNotFound {
		t.Fatalf("err = %v; want ErrOperationNotFound", err)
	}
	// The rejected declaration left nothing behind.
	if n := countRows(t, db, &domain.Operation{}); n != 0 {
		t.Fatalf("operation rows = %d; want 0", n)
	}

	if _, err := tracker.Declare(ctx, "no-such-doc", "extract", "", nil); err != ErrDocumentNotFound {
		t.Fatalf("unknown document err = %v; want ErrDocumentNotFound", err)
	}
}

func TestOperationTracker_AddDependency_RejectsCycles(t *testing.T) {
	tracker, d, db := newTrackerEnv(t)
	ctx := context.Background()

	a, err := tracker.Declare(ctx, d.ID, "extract", "", nil)
	if err != nil {
		t.Fatalf("Declare a: %v", err)
	}
	b, err := tracker.Declare(ctx, d.ID, "validate", "", []string{a.ID})
	if err != nil {
		t.Fatalf("Declare b: %v", err)
	}
	c, err := tracker.Declare(ctx, d.ID, "publish", "", []string{b.ID})
	if err != nil {
		t.Fatalf("Declare c: %v", err)
	}

	// Self-dependency.
	if err := tracker.AddDependency(ctx, a.ID, a.ID); err != ErrCyclicDependency {
		t.Fatalf("self edge err = %v; want ErrCyclicDependency", err)
	}
	// a -> c would close the cycle a -> c -> b -> a.
	if err := tracker.AddDependency(ctx, a.ID, c.ID); err != ErrCyclicDependency {
		t.Fatalf("cycle edge err = %v; want ErrCyclicDependency", err)
	}
	// The rejected edge left the graph unchanged.
	if n := countRows(t, db, &domain.OperationDependency{}); n != 2 {
		t.Fatalf("edges = %d; want 2", n)
	}

	// A legal diamond edge still works: c additionally depends on a.
	if err := tracker.AddDependency(ctx, c.ID, a.ID); err != nil {
		t.Fatalf("diamond edge: %v", err)
	}
	// Re-adding the same edge is a no-op.
	if err := tracker.AddDependency(ctx, c.ID, a.ID); err != nil {
		t.Fatalf("repeat edge: %v", err)
	}
	if n := countRows(t, db, &domain.OperationDependency{}); n != 3 {
		t.Fatalf("edges = %d; want 3", n)
	}
}

func TestOperationTracker_AddDependency_CrossDocumentRejected(t *testing.T) {
	tracker, d, db := newTrackerEnv(t)
	ctx := context.Background()

	other := &domain.Document{
		ID:          "22222222-2222-2222-2222-222222222222",
		BasketID:    d.BasketID,
		Name:        "y.pdf",
		Status:      domain.DocStatusReceived,
		Checksum:    "00",
		StoragePath: "p",
	}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("seed other doc: %v", err)
	}

	a, err := tracker.Declare(ctx, d.ID, "extract", "", nil)
	if err != nil {
		t.Fatalf("Declare a: %v", err)
	}
	foreign, err := tracker.Declare(ctx, other.ID, "extract", "", nil)
	if err != nil {
		t.Fatalf("Declare foreign: %v", err)
	}
	if err := tracker.AddDependency(ctx, a.ID, foreign.ID); err != ErrOperationNotFound {
		t.Fatalf("cross-document edge err = %v; want ErrOperationNotFound", err)
	}
}

func TestOperationTracker_StatusTransitions(t *testing.T) {
	tracker, d, _ := newTrackerEnv(t)
	ctx := context.Background()

	op, err := tracker.Declare(ctx, d.ID, "extract", "", nil)
	if err != nil {
		t.Fatalf("Declare: %v", err)
	}

	if err := tracker.Start(ctx, op.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Starting again fails: the operation is no longer PENDING.
	if err := tracker.Start(ctx, op.ID); err != ErrInvalidTransition {
		t.Fatalf("double start err = %v; want ErrInvalidTransition", err)
	}

	if err := tracker.MarkCompleted(ctx, op.ID); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	// Terminal operations are immutable.
	if err := tracker.MarkFailed(ctx, op.ID, "late failure"); err != ErrInvalidTransition {
		t.Fatalf("mutate terminal err = %v; want ErrInvalidTransition", err)
	}

	if err := tracker.Start(ctx, "missing"); err != ErrOperationNotFound {
		t.Fatalf("missing op err = %v; want ErrOperationNotFound", err)
	}
}

func TestOperationTracker_ProcessRunnable_DrainsInWaves(t *testing.T) {
	tracker, d, _ := newTrackerEnv(t)
	ctx := context.Background()

	extract, err := tracker.Declare(ctx, d.ID, "extract", "", nil)
	if err != nil {
		t.Fatalf("Declare extract: %v", err)
	}
	validate, err := tracker.Declare(ctx, d.ID, "validate", "", []string{extract.ID})
	if err != nil {
		t.Fatalf("Declare validate: %v", err)
	}

	var ran []string
	dispatcher := NewDispatcher(
		TypeRule("extract", func(ctx context.Context, op domain.Operation) error {
			ran = append(ran, "extract")
			return nil
		}),
		TypeRule("validate", func(ctx context.Context, op domain.Operation) error {
			ran = append(ran, "validate")
			return errors.New("schema mismatch")
		}),
	)

	// First wave: only extract is runnable.
	n, err := tracker.ProcessRunnable(ctx, d.ID, dispatcher)
	if err != nil || n != 1 {
		t.Fatalf("first wave = (%d, %v); want (1, nil)", n, err)
	}
	// Second wave: extract's completion unlocked validate, whose handler
	// fails.
	n, err = tracker.ProcessRunnable(ctx, d.ID, dispatcher)
	if err != nil || n != 1 {
		t.Fatalf("second wave = (%d, %v); want (1, nil)", n, err)
	}
	// Third wave: nothing left.
	n, err = tracker.ProcessRunnable(ctx, d.ID, dispatcher)
	if err != nil || n != 0 {
		t.Fatalf("third wave = (%d, %v); want (0, nil)", n, err)
	}

	if len(ran) != 2 || ran[0] != "extract" || ran[1] != "validate" {
		t.Fatalf("handler order = %v", ran)
	}

	got, err := tracker.List(ctx, d.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	byID := map[string]domain.Operation{}
	for _, op := range got {
		byID[op.ID] = op
	}
	if byID[extract.ID].Status != domain.OpStatusCompleted {
		t.Fatalf("extract status = %q; want COMPLETED", byID[extract.ID].Status)
	}
	v := byID[validate.ID]
	if v.Status != domain.OpStatusFailed || v.ErrorText != "schema mismatch" || v.CompletedAt == nil {
		t.Fatalf("validate state mismatch: %+v", v)
	}
}
