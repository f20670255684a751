// Package tenant implements tenant isolation: the durable registry of
// provisioned tenants, the bootstrap ("system") tenant that hosts the
// registry itself, and the provisioner that creates new isolation
// boundaries.
//
// A boundary is either a dedicated SQLite database file (file-based
// deployments) or a dedicated Postgres schema (shared-server deployments).
// The strategy is auto-detected from the configured database backend, never
// passed per call.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/docex/go-docstore-backend/internal/repo"
)

// Database backend identifiers accepted in Options.Backend.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Options carries the connection parameters the tenant layer needs. The
// values originate from the process-wide configuration and are passed in
// explicitly; this package never reads ambient state.
type Options struct {
	// Backend selects the isolation strategy: BackendSQLite provisions a
	// database file per tenant, BackendPostgres a schema per tenant.
	Backend string

	// DataDir is the directory holding per-tenant SQLite database files.
	DataDir string

	// PostgresDSN is the shared-server connection string for the schema
	// strategy.
	PostgresDSN string

	// Logger receives structured provisioning events. The zero value
	// disables logging.
	Logger zerolog.Logger
}

// strategy abstracts boundary handling so the registry, bootstrap manager,
// and provisioner stay backend-agnostic.
type strategy interface {
	// boundary returns the descriptor stored in the registry for tenantID.
	boundary(tenantID string) string

	// exists reports whether the boundary is already present. It never
	// creates anything, so readiness probes stay side-effect free.
	exists(ctx context.Context, tenantID string) (bool, error)

	// create makes the isolation boundary (idempotent for an existing
	// boundary) and returns an open handle to it.
	create(ctx context.Context, tenantID string) (*gorm.DB, error)

	// open connects to an existing boundary by its stored descriptor.
	open(boundary string) (*gorm.DB, error)

	// drop removes the boundary of a failed provisioning attempt.
	drop(ctx context.Context, tenantID string) error
}

// newStrategy auto-detects the isolation strategy from the backend type.
func newStrategy(opts Options) (strategy, error) {
	switch opts.Backend {
	case BackendSQLite:
		if opts.DataDir == "" {
			return nil, errors.New("tenant: data dir is required for the sqlite backend")
		}
		return &sqliteStrategy{dataDir: opts.DataDir}, nil
	case BackendPostgres:
		if opts.PostgresDSN == "" {
			return nil, errors.New("tenant: postgres dsn is required for the postgres backend")
		}
		return &postgresStrategy{dsn: opts.PostgresDSN}, nil
	default:
		return nil, fmt.Errorf("tenant: unknown database backend %q", opts.Backend)
	}
}

// sqliteStrategy provisions one database file per tenant beneath a data
// directory.
type sqliteStrategy struct {
	dataDir string
}

func (s *sqliteStrategy) boundary(tenantID string) string {
	return filepath.Join(s.dataDir, tenantID+".db")
}

func (s *sqliteStrategy) exists(ctx context.Context, tenantID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := os.Stat(s.boundary(tenantID)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *sqliteStrategy) create(ctx context.Context, tenantID string) (*gorm.DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return nil, err
	}
	return repo.OpenSQLite(s.boundary(tenantID))
}

func (s *sqliteStrategy) open(boundary string) (*gorm.DB, error) {
	if _, err := os.Stat(boundary); err != nil {
		return nil, err
	}
	return repo.OpenSQLite(boundary)
}

func (s *sqliteStrategy) drop(ctx context.Context, tenantID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	base := s.boundary(tenantID)
	for _, p := range []string{base, base + "-wal", base + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// postgresStrategy provisions one schema per tenant on a shared server.
// Tenant identifiers double as schema names; they have already passed
// ValidateTenantID, and are still quoted defensively in DDL.
type postgresStrategy struct {
	dsn string

	mu    sync.Mutex
	admin *gorm.DB // lazily opened default search_path session for DDL
}

func (s *postgresStrategy) adminDB() (*gorm.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.admin != nil {
		return s.admin, nil
	}
	db, err := repo.OpenPostgres(s.dsn)
	if err != nil {
		return nil, err
	}
	s.admin = db
	return db, nil
}

func (s *postgresStrategy) boundary(tenantID string) string {
	return tenantID
}

func (s *postgresStrategy) exists(ctx context.Context, tenantID string) (bool, error) {
	admin, err := s.adminDB()
	if err != nil {
		return false, err
	}
	var n int64
	err = admin.WithContext(ctx).
		Raw(`SELECT count(*) FROM information_schema.schemata WHERE schema_name = ?`, tenantID).
		Scan(&n).Error
	return n > 0, err
}

func (s *postgresStrategy) create(ctx context.Context, tenantID string) (*gorm.DB, error) {
	admin, err := s.adminDB()
	if err != nil {
		return nil, err
	}
	ddl := fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %q`, tenantID)
	if err := admin.WithContext(ctx).Exec(ddl).Error; err != nil {
		return nil, err
	}
	return repo.OpenPostgresSchema(s.dsn, tenantID)
}

func (s *postgresStrategy) open(boundary string) (*gorm.DB, error) {
	return repo.OpenPostgresSchema(s.dsn, boundary)
}

func (s *postgresStrategy) drop(ctx context.Context, tenantID string) error {
	admin, err := s.adminDB()
	if err != nil {
		return err
	}
	ddl := fmt.Sprintf(`DROP SCHEMA IF EXISTS %q CASCADE`, tenantID)
	return admin.WithContext(ctx).Exec(ddl).Error
}
