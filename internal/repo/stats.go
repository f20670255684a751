// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries
// used by the diagnostics surface (readiness and health reporting). Each
// function is context-aware and safe to call from services or handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/docex/go-docstore-backend/internal/domain"
)

// BasketStats returns aggregate metadata for a tenant's baskets: the total
// number of rows and the maximum UpdatedAt timestamp among those rows.
// When the tenant has no baskets, the returned count is 0 and maxUpdatedAt
// is nil.
func BasketStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Basket{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// DocumentStats returns the per-status document counts within a basket.
// It powers the diagnostics surface and has no pagination concerns.
func DocumentStats(ctx context.Context, db *gorm.DB, basketID string) (map[string]int64, error) {
	var rows []struct {
		Status string
		N      int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Document{}).
		Select("status, COUNT(*) as n").
		Where("basket_id = ?", basketID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}
