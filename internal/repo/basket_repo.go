// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Basket
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a basket is not found, functions return ErrNotFound.
//   - When a basket name collides, CreateBasket returns ErrDuplicate.
//   - On other DB errors, the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/docex/go-docstore-backend/internal/domain"
)

// CreateBasket inserts a new basket row. The caller supplies the fully
// populated row including the UUID and the cached path components; name
// uniqueness is enforced by the unique index, surfacing ErrDuplicate on
// collision so concurrent creators resolve to exactly one winner.
func CreateBasket(ctx context.Context, db *gorm.DB, b *domain.Basket) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(b).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetBasket fetches a basket by ID, or ErrNotFound if missing.
func GetBasket(ctx context.Context, db *gorm.DB, id string) (*domain.Basket, error) {
	var b domain.Basket
	if err := db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBasketByName fetches a basket by its tenant-unique name.
func GetBasketByName(ctx context.Context, db *gorm.DB, name string) (*domain.Basket, error) {
	var b domain.Basket
	if err := db.WithContext(ctx).First(&b, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBaskets returns all baskets ordered by creation time descending.
func ListBaskets(ctx context.Context, db *gorm.DB) ([]domain.Basket, error) {
	var out []domain.Basket
	err := db.WithContext(ctx).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// UpdateBasketStatus sets a basket's status to "active" or "inactive".
// Returns ErrNotFound when the basket does not exist.
func UpdateBasketStatus(ctx context.Context, db *gorm.DB, id, status string) error {
	res := db.WithContext(ctx).
		Model(&domain.Basket{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBasket removes the basket row. Dependent rows (documents, file
// history, operations, dependency edges, metadata) are removed by the
// service layer inside the same transaction; SQLite deployments also get
// ON DELETE CASCADE from the schema, but the explicit deletes keep the
// behavior uniform across backends.
func DeleteBasket(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Delete(&domain.Basket{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
