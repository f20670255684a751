// Package tenant – tenant provisioning.
package tenant

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/docex/go-docstore-backend/internal/domain"
	"github.com/docex/go-docstore-backend/internal/observability"
)

// Provisioner creates new tenant isolation boundaries and registers them.
// Registration is the final step of a provisioning attempt, so a failure
// midway never leaves a registered-but-empty tenant behind.
type Provisioner struct {
	mgr *Manager

	// mu serializes in-process provisioning attempts: two goroutines
	// racing on the same id must not migrate one boundary concurrently.
	// Across processes the registry's primary key remains the arbiter.
	mu sync.Mutex
}

// NewProvisioner returns a provisioner backed by the bootstrap manager.
func NewProvisioner(mgr *Manager) *Provisioner {
	return &Provisioner{mgr: mgr}
}

// TenantExists is a pure lookup with no side effects, usable as an
// idempotency guard before Create.
func (p *Provisioner) TenantExists(ctx context.Context, tenantID string) (bool, error) {
	reg, err := p.mgr.Registry(ctx)
	if err != nil {
		return false, err
	}
	return reg.Exists(ctx, tenantID)
}

// Create provisions a new tenant:
//
//  1. validates tenantID (naming rule + reserved-word blacklist),
//  2. rejects already-registered ids with ErrTenantExists,
//  3. creates the isolation boundary for the auto-detected strategy,
//  4. initializes all core tables and indexes and validates the result,
//     rolling the boundary back on a SchemaValidationError,
//  5. registers the tenant in the registry as the final step.
//
// Two concurrent Create calls for the same id resolve at step 5: the
// registry's primary key admits exactly one row, and the loser observes
// ErrTenantExists without dropping the winner's boundary.
func (p *Provisioner) Create(ctx context.Context, tenantID, displayName, createdBy string) (*domain.Tenant, error) {
	if err := ValidateTenantID(tenantID); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	reg, err := p.mgr.Registry(ctx)
	if err != nil {
		return nil, err
	}
	exists, err := reg.Exists(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrTenantExists
	}

	db, err := p.mgr.strat.create(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if err := migrateCore(db); err != nil {
		closeHandle(db)
		p.rollback(ctx, tenantID)
		return nil, err
	}
	if err := validateSchema(db, tenantID); err != nil {
		closeHandle(db)
		p.rollback(ctx, tenantID)
		return nil, err
	}

	row := &domain.Tenant{
		ID:          tenantID,
		DisplayName: displayName,
		Boundary:    p.mgr.strat.boundary(tenantID),
		Status:      domain.TenantStatusActive,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC(),
	}
	if err := reg.Register(ctx, row); err != nil {
		closeHandle(db)
		// A concurrent provisioner won the race; its boundary is live, so
		// nothing is rolled back here.
		if errors.Is(err, ErrTenantExists) {
			return nil, ErrTenantExists
		}
		p.rollback(ctx, tenantID)
		return nil, err
	}

	// The freshly migrated handle becomes the tenant's shared pool, so the
	// first OpenTenant does not open a second one.
	p.mgr.cacheHandle(tenantID, db)

	observability.TenantsProvisioned.Inc()
	p.mgr.opts.Logger.Info().
		Str("tenant_id", tenantID).
		Str("boundary", row.Boundary).
		Str("created_by", createdBy).
		Msg("tenant provisioned")
	return row, nil
}

// rollback removes a partially provisioned boundary so a failed attempt is
// safe to retry. Any cached handle for the id is released first; a dropped
// boundary must never stay reachable through the manager. Rollback
// failures are logged, not returned: the original provisioning error is
// the one the caller needs.
func (p *Provisioner) rollback(ctx context.Context, tenantID string) {
	p.mgr.evictHandle(tenantID)
	if err := p.mgr.strat.drop(ctx, tenantID); err != nil {
		p.mgr.opts.Logger.Warn().
			Err(err).
			Str("tenant_id", tenantID).
			Msg("boundary rollback failed")
	}
}
