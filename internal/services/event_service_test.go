package services

import (
	"context"
	"testing"

	"github.com/docex/go-docstore-backend/internal/domain"
)

func newEventSvc(t *testing.T) *EventService {
	t.Helper()
	db, _, _ := newServiceEnv(t)
	return NewEventService(db)
}

func TestEventService_EmitAndDrain(t *testing.T) {
	events := newEventSvc(t)
	ctx := context.Background()

	e1, err := events.Emit(ctx, "basket-1", "document.added", "doc-1", map[string]string{"name": "x.pdf"})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if e1.EventID == "" || e1.Status != domain.EventStatusPending {
		t.Fatalf("unexpected event: %+v", e1)
	}
	if e1.Payload != `{"name":"x.pdf"}` {
		t.Fatalf("payload = %s", e1.Payload)
	}

	e2, err := events.Emit(ctx, "basket-1", "basket.deleted", "", nil)
	if err != nil {
		t.Fatalf("Emit second: %v", err)
	}
	if e2.Payload != "" || e2.DocumentID != "" {
		t.Fatalf("basket-level event mismatch: %+v", e2)
	}

	pending, err := events.Pending(ctx, 10)
	if err != nil || len(pending) != 2 {
		t.Fatalf("Pending = (%d, %v); want 2", len(pending), err)
	}

	if err := events.MarkProcessed(ctx, e1.EventID); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	if err := events.MarkFailed(ctx, e2.EventID, "consumer down"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	pending, err = events.Pending(ctx, 10)
	if err != nil || len(pending) != 0 {
		t.Fatalf("Pending after ack = (%d, %v); want 0", len(pending), err)
	}
}

func TestEventService_Validation(t *testing.T) {
	events := newEventSvc(t)
	ctx := context.Background()

	if _, err := events.Emit(ctx, "basket-1", "", "", nil); err != ErrEmptyName {
		t.Fatalf("empty type err = %v; want ErrEmptyName", err)
	}
	if err := events.MarkProcessed(ctx, "missing"); err != ErrEventNotFound {
		t.Fatalf("missing event err = %v; want ErrEventNotFound", err)
	}
	if err := events.MarkFailed(ctx, "missing", "x"); err != ErrEventNotFound {
		t.Fatalf("missing event err = %v; want ErrEventNotFound", err)
	}
}
