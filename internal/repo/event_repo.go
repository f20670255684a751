// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the DocEvent
// append-only event log. The core guarantees at-least-once durability of
// the PENDING row; consumers transition rows to PROCESSED or FAILED.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/docex/go-docstore-backend/internal/domain"
)

// CreateEvent appends one lifecycle event with status PENDING. The
// event_id is unique; a duplicate surfaces ErrDuplicate so replayed
// emitters cannot double-insert.
func CreateEvent(ctx context.Context, db *gorm.DB, e *domain.DocEvent) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Status == "" {
		e.Status = domain.EventStatusPending
	}
	if err := db.WithContext(ctx).Create(e).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// ListPendingEvents returns up to limit PENDING events, oldest first, for
// an external consumer to drain.
func ListPendingEvents(ctx context.Context, db *gorm.DB, limit int) ([]domain.DocEvent, error) {
	q := db.WithContext(ctx).
		Where("status = ?", domain.EventStatusPending).
		Order("created_at asc, id asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []domain.DocEvent
	err := q.Find(&out).Error
	return out, err
}

// UpdateEventStatus transitions an event identified by its unique
// event_id, recording errMsg for failures. Returns ErrNotFound if no such
// event exists.
func UpdateEventStatus(ctx context.Context, db *gorm.DB, eventID, status, errMsg string) error {
	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if errMsg != "" {
		updates["error_message"] = errMsg
	}
	res := db.WithContext(ctx).
		Model(&domain.DocEvent{}).
		Where("event_id = ?", eventID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
