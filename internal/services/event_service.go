// Package services – EventService
//
// This file implements the consumer-facing surface of the append-only
// event log. The core guarantees at-least-once durability of the PENDING
// row at emit time; a separate consumer drains Pending and acknowledges
// each event with MarkProcessed or MarkFailed.
package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docex/go-docstore-backend/internal/domain"
	"github.com/docex/go-docstore-backend/internal/observability"
	"github.com/docex/go-docstore-backend/internal/repo"
)

// EventService appends and acknowledges lifecycle events for one tenant
// boundary.
type EventService struct {
	DB *gorm.DB
}

// NewEventService constructs an EventService over a boundary handle.
func NewEventService(db *gorm.DB) *EventService {
	return &EventService{DB: db}
}

// Emit appends one event with a fresh unique event_id and status PENDING.
// documentID may be empty for basket-level events. The payload is JSON
// encoded.
func (s *EventService) Emit(ctx context.Context, basketID, eventType, documentID string, payload any) (*domain.DocEvent, error) {
	if eventType == "" {
		return nil, ErrEmptyName
	}
	encoded := ""
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		encoded = string(raw)
	}

	e := &domain.DocEvent{
		EventID:    uuid.NewString(),
		BasketID:   basketID,
		DocumentID: documentID,
		EventType:  eventType,
		Payload:    encoded,
		Status:     domain.EventStatusPending,
	}
	if err := repo.CreateEvent(ctx, s.DB, e); err != nil {
		return nil, err
	}
	observability.EventsEmitted.WithLabelValues(eventType).Inc()
	return e, nil
}

// Pending returns up to limit undelivered events, oldest first.
func (s *EventService) Pending(ctx context.Context, limit int) ([]domain.DocEvent, error) {
	return repo.ListPendingEvents(ctx, s.DB, limit)
}

// MarkProcessed acknowledges successful consumption of an event.
func (s *EventService) MarkProcessed(ctx context.Context, eventID string) error {
	err := repo.UpdateEventStatus(ctx, s.DB, eventID, domain.EventStatusProcessed, "")
	if errors.Is(err, repo.ErrNotFound) {
		return ErrEventNotFound
	}
	return err
}

// MarkFailed records a failed delivery attempt with its error message.
// The event stays failed; at-least-once consumers may re-emit.
func (s *EventService) MarkFailed(ctx context.Context, eventID, errMsg string) error {
	err := repo.UpdateEventStatus(ctx, s.DB, eventID, domain.EventStatusFailed, errMsg)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrEventNotFound
	}
	return err
}
