// Package docstore wires configuration, tenant isolation, content storage,
// and the per-tenant services into one entry point. Callers load a Config,
// Open a Store, Initialize it once, and obtain tenant-scoped handles for
// basket and document operations.
package docstore

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/docex/go-docstore-backend/internal/config"
	"github.com/docex/go-docstore-backend/internal/pathres"
	"github.com/docex/go-docstore-backend/internal/services"
	"github.com/docex/go-docstore-backend/internal/storage"
	"github.com/docex/go-docstore-backend/internal/sysutil"
	"github.com/docex/go-docstore-backend/internal/tenant"
)

// Store is the process-wide handle: one storage backend, one tenant
// manager, one logger. Tenant-scoped services are derived from it per
// call via Tenant.
type Store struct {
	cfg     config.Config
	backend storage.Backend
	mgr     *tenant.Manager
	prov    *tenant.Provisioner
	log     zerolog.Logger
}

// Open builds a Store from the configuration. It connects to the content
// storage backend (and for object stores ensures the bucket exists) but
// does not touch the database; call Initialize before tenant operations.
func Open(ctx context.Context, cfg config.Config) (*Store, error) {
	sysutil.SetLogLevel(cfg.LogLevel)
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if cfg.LogPretty {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	backend, err := newBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	mgr, err := tenant.NewManager(tenant.Options{
		Backend:     cfg.Database.Backend,
		DataDir:     cfg.Database.DataDir,
		PostgresDSN: cfg.Database.PostgresDSN,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}

	return &Store{
		cfg:     cfg,
		backend: backend,
		mgr:     mgr,
		prov:    tenant.NewProvisioner(mgr),
		log:     log,
	}, nil
}

func newBackend(ctx context.Context, cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case config.StorageFilesystem:
		return storage.NewFilesystem(cfg.FilesystemRoot)
	case config.StorageObjectStore:
		return storage.NewObjectStore(ctx, storage.ObjectStoreConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
		})
	default:
		return nil, fmt.Errorf("docstore: unknown storage backend %q", cfg.Backend)
	}
}

// Initialize sets up the bootstrap tenant (idempotent) and, in
// single-tenant mode, provisions the default tenant when it does not
// exist yet.
func (s *Store) Initialize(ctx context.Context, createdBy string) error {
	if err := s.mgr.Initialize(ctx, createdBy); err != nil {
		return err
	}
	if s.cfg.Tenancy.Mode != config.TenancySingle {
		return nil
	}

	id := s.cfg.Tenancy.DefaultTenant
	exists, err := s.prov.TenantExists(ctx, id)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if _, err := s.prov.Create(ctx, id, id, createdBy); err != nil && err != tenant.ErrTenantExists {
		return err
	}
	return nil
}

// Close releases every database connection pool the store holds: all
// cached tenant handles and the bootstrap handle.
func (s *Store) Close() error { return s.mgr.Close() }

// Manager exposes the tenant manager for diagnostics surfaces.
func (s *Store) Manager() *tenant.Manager { return s.mgr }

// Provisioner exposes tenant provisioning for multi-tenant callers.
func (s *Store) Provisioner() *tenant.Provisioner { return s.prov }

// Tenant bundles the services bound to one tenant's isolation boundary.
type Tenant struct {
	ID string

	Baskets    *services.BasketService
	Documents  *services.DocumentService
	Operations *services.OperationTracker
	Metadata   *services.MetadataService
	Events     *services.EventService
}

// Tenant opens a tenant's boundary and returns its service bundle. In
// single-tenant mode an empty tenantID falls back to the configured
// default tenant.
func (s *Store) Tenant(ctx context.Context, tenantID string) (*Tenant, error) {
	id := tenantID
	if s.cfg.Tenancy.Mode == config.TenancySingle {
		id = sysutil.FirstNonEmpty(tenantID, s.cfg.Tenancy.DefaultTenant)
	}

	db, err := s.mgr.OpenTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	pathCfg := pathres.Config{
		TenantID:      id,
		PathNamespace: s.cfg.Tenancy.PathNamespace,
		Prefix:        s.cfg.Tenancy.PathPrefix,
	}
	log := s.log.With().Str("tenant_id", id).Logger()

	return &Tenant{
		ID:         id,
		Baskets:    services.NewBasketService(db, s.backend, pathCfg, s.cfg.Storage.Backend, log),
		Documents:  services.NewDocumentService(db, s.backend, log),
		Operations: services.NewOperationTracker(db),
		Metadata:   services.NewMetadataService(db),
		Events:     services.NewEventService(db),
	}, nil
}
