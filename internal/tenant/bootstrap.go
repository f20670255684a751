// Package tenant – bootstrap tenant management.
//
// The registry needed to find a tenant's boundary is itself stored under
// the bootstrap tenant. To break that self-reference, the bootstrap
// boundary is resolved from a hard-coded descriptor derived from the
// configured strategy, never through a registry lookup. Ordinary tenants
// go through the registry; the bootstrap tenant never does.
package tenant

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/docex/go-docstore-backend/internal/domain"
)

// Manager owns the bootstrap tenant: its boundary, the registry table
// inside it, and the read-only setup diagnostics exposed to callers.
type Manager struct {
	opts  Options
	strat strategy

	mu      sync.Mutex
	boot    *gorm.DB            // cached bootstrap-boundary handle
	handles map[string]*gorm.DB // cached tenant-boundary handles by id
}

// NewManager selects the isolation strategy for the configured backend and
// returns an uninitialized manager. Call Initialize (or verify
// IsInitialized) before any tenant-scoped operation.
func NewManager(opts Options) (*Manager, error) {
	strat, err := newStrategy(opts)
	if err != nil {
		return nil, err
	}
	return &Manager{opts: opts, strat: strat}, nil
}

// bootstrapDB opens (once) the bootstrap boundary using the hard-coded
// descriptor. No registry lookup happens on this path.
func (m *Manager) bootstrapDB(ctx context.Context) (*gorm.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.boot != nil {
		return m.boot, nil
	}
	db, err := m.strat.create(ctx, BootstrapTenantID)
	if err != nil {
		return nil, &SetupError{Reason: "bootstrap boundary unreachable", Err: err}
	}
	m.boot = db
	return db, nil
}

// bootExists reports whether the bootstrap boundary is present without
// creating it. A cached handle implies presence.
func (m *Manager) bootExists(ctx context.Context) (bool, error) {
	m.mu.Lock()
	cached := m.boot != nil
	m.mu.Unlock()
	if cached {
		return true, nil
	}
	return m.strat.exists(ctx, BootstrapTenantID)
}

// IsInitialized reports whether the bootstrap boundary and the registry
// table exist, are reachable, and contain the bootstrap tenant's own row.
// It is a pure probe: an uninitialized store is reported as such without
// creating the data directory or an empty boundary as a side effect.
func (m *Manager) IsInitialized(ctx context.Context) bool {
	if ok, err := m.bootExists(ctx); err != nil || !ok {
		return false
	}
	db, err := m.bootstrapDB(ctx)
	if err != nil {
		return false
	}
	if !db.Migrator().HasTable(&domain.Tenant{}) {
		return false
	}
	var n int64
	err = db.WithContext(ctx).
		Model(&domain.Tenant{}).
		Where("id = ?", BootstrapTenantID).
		Count(&n).Error
	return err == nil && n > 0
}

// Initialize sets up the bootstrap tenant. It is idempotent: when the
// boundary, registry table, and bootstrap row already exist it is a no-op.
// Otherwise it creates the boundary, the registry schema, the core tables,
// and registers the bootstrap tenant itself. A SetupError is returned when
// the underlying database is unreachable.
func (m *Manager) Initialize(ctx context.Context, createdBy string) error {
	if m.IsInitialized(ctx) {
		return nil
	}

	db, err := m.bootstrapDB(ctx)
	if err != nil {
		return err
	}

	reg := NewRegistry(db)
	if err := reg.migrate(); err != nil {
		return &SetupError{Reason: "registry schema creation failed", Err: err}
	}
	if err := migrateCore(db); err != nil {
		return &SetupError{Reason: "bootstrap core schema creation failed", Err: err}
	}

	row := &domain.Tenant{
		ID:          BootstrapTenantID,
		DisplayName: "System",
		Boundary:    m.strat.boundary(BootstrapTenantID),
		IsBootstrap: true,
		Status:      domain.TenantStatusActive,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC(),
	}
	if err := reg.Register(ctx, row); err != nil && err != ErrTenantExists {
		return &SetupError{Reason: "bootstrap tenant registration failed", Err: err}
	}

	m.opts.Logger.Info().
		Str("tenant_id", BootstrapTenantID).
		Str("boundary", row.Boundary).
		Str("created_by", createdBy).
		Msg("bootstrap tenant initialized")
	return nil
}

// Registry returns the registry bound to the bootstrap boundary, or
// ErrNotInitialized when Initialize has not run yet.
func (m *Manager) Registry(ctx context.Context) (*Registry, error) {
	if !m.IsInitialized(ctx) {
		return nil, ErrNotInitialized
	}
	db, err := m.bootstrapDB(ctx)
	if err != nil {
		return nil, err
	}
	return NewRegistry(db), nil
}

// OpenTenant resolves a tenant's boundary and returns an open handle to
// it. The bootstrap tenant short-circuits to the hard-coded descriptor;
// every other tenant resolves through the registry. Handles are cached
// per tenant, so repeated calls share one connection pool; Close releases
// them.
func (m *Manager) OpenTenant(ctx context.Context, tenantID string) (*gorm.DB, error) {
	if tenantID == BootstrapTenantID {
		return m.bootstrapDB(ctx)
	}

	m.mu.Lock()
	if db, ok := m.handles[tenantID]; ok {
		m.mu.Unlock()
		return db, nil
	}
	m.mu.Unlock()

	reg, err := m.Registry(ctx)
	if err != nil {
		return nil, err
	}
	row, err := reg.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	db, err := m.strat.open(row.Boundary)
	if err != nil {
		return nil, err
	}
	return m.cacheHandle(tenantID, db), nil
}

// cacheHandle stores an open tenant handle, returning the cached one (and
// closing db) when a concurrent caller stored first.
func (m *Manager) cacheHandle(tenantID string, db *gorm.DB) *gorm.DB {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cached, ok := m.handles[tenantID]; ok {
		closeHandle(db)
		return cached
	}
	if m.handles == nil {
		m.handles = make(map[string]*gorm.DB)
	}
	m.handles[tenantID] = db
	return db
}

// evictHandle closes and forgets a cached tenant handle, if any.
func (m *Manager) evictHandle(tenantID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if db, ok := m.handles[tenantID]; ok {
		closeHandle(db)
		delete(m.handles, tenantID)
	}
}

// Close releases every cached connection pool: all tenant handles and the
// bootstrap handle. The manager is unusable afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, db := range m.handles {
		closeHandle(db)
		delete(m.handles, id)
	}
	if m.boot != nil {
		closeHandle(m.boot)
		m.boot = nil
	}
	return nil
}

func closeHandle(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// IsProperlySetup reports whether the setup diagnostics find no problems.
func (m *Manager) IsProperlySetup(ctx context.Context) bool {
	return len(m.SetupErrors(ctx)) == 0
}

// SetupErrors returns human-readable descriptions of every setup problem
// found: unreachable bootstrap boundary, missing registry table, missing
// bootstrap registration, or missing core tables. An empty slice means the
// store is ready for basket and document operations.
func (m *Manager) SetupErrors(ctx context.Context) []string {
	var errs []string

	ok, err := m.bootExists(ctx)
	if err != nil {
		return []string{(&SetupError{Reason: "bootstrap boundary unreachable", Err: err}).Error()}
	}
	if !ok {
		return []string{"bootstrap boundary not created"}
	}

	db, err := m.bootstrapDB(ctx)
	if err != nil {
		return []string{err.Error()}
	}

	if !db.Migrator().HasTable(&domain.Tenant{}) {
		errs = append(errs, "registry table missing from bootstrap boundary")
	} else {
		var n int64
		if err := db.WithContext(ctx).Model(&domain.Tenant{}).
			Where("id = ?", BootstrapTenantID).Count(&n).Error; err != nil {
			errs = append(errs, fmt.Sprintf("registry unreadable: %v", err))
		} else if n == 0 {
			errs = append(errs, "bootstrap tenant not registered")
		}
	}

	errs = append(errs, missingCoreObjects(db)...)
	return errs
}
