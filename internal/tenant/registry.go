// Package tenant – the durable tenant registry.
//
// The registry is itself tenant data: its single table lives inside the
// bootstrap tenant's isolation boundary (see Manager). Every tenant-scoped
// operation consults it to resolve a tenant's boundary descriptor.
package tenant

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/docex/go-docstore-backend/internal/domain"
	"github.com/docex/go-docstore-backend/internal/repo"
)

// Registry provides lookups and registration over the tenants table. It is
// always bound to the bootstrap tenant's database handle.
type Registry struct {
	db *gorm.DB
}

// NewRegistry wraps an open bootstrap-boundary handle.
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// migrate creates the registry table.
func (r *Registry) migrate() error {
	return r.db.AutoMigrate(&domain.Tenant{})
}

// Register inserts a tenant row. The primary key makes concurrent
// registration of the same id resolve to exactly one winner; the loser
// receives ErrTenantExists.
func (r *Registry) Register(ctx context.Context, t *domain.Tenant) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Status == "" {
		t.Status = domain.TenantStatusActive
	}
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		if repo.IsDuplicate(err) {
			return ErrTenantExists
		}
		return err
	}
	return nil
}

// Get returns the registry row for tenantID, or ErrTenantNotFound.
func (r *Registry) Get(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := r.db.WithContext(ctx).First(&t, "id = ?", tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Exists is a pure lookup with no side effects, safe to call before every
// provisioning attempt.
func (r *Registry) Exists(ctx context.Context, tenantID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&domain.Tenant{}).
		Where("id = ?", tenantID).
		Count(&n).Error
	return n > 0, err
}

// List returns all registered tenants ordered by creation time.
func (r *Registry) List(ctx context.Context) ([]domain.Tenant, error) {
	var out []domain.Tenant
	err := r.db.WithContext(ctx).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// UpdateStatus changes a tenant's status. Status is the only mutable field
// of a registered tenant; rows are never physically deleted here.
func (r *Registry) UpdateStatus(ctx context.Context, tenantID, status string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Tenant{}).
		Where("id = ?", tenantID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTenantNotFound
	}
	return nil
}
