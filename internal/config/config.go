// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes database backend
// selection, storage backend parameters, tenancy mode, logging, and
// observability settings.
//
// The configuration is constructed once at process start and passed by
// value into every component constructor; no component reads ambient state
// after that.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database backend identifiers.
const (
	DBBackendSQLite   = "sqlite"
	DBBackendPostgres = "postgres"
)

// Storage backend identifiers.
const (
	StorageFilesystem  = "filesystem"
	StorageObjectStore = "object_store"
)

// Tenancy modes.
const (
	TenancySingle = "single"
	TenancyMulti  = "multi"
)

// DatabaseConfig selects the relational backend and, with it, the tenant
// isolation strategy: sqlite provisions one database file per tenant under
// DataDir, postgres one schema per tenant on the shared server.
type DatabaseConfig struct {
	Backend     string // DB_BACKEND: sqlite|postgres
	DataDir     string // DB_DATA_DIR: directory for per-tenant sqlite files
	PostgresDSN string // DB_POSTGRES_DSN
}

// ObjectStoreConfig holds MinIO-compatible connection parameters.
type ObjectStoreConfig struct {
	Endpoint  string // STORAGE_MINIO_ENDPOINT (e.g. "minio:9000")
	AccessKey string // STORAGE_MINIO_ACCESS_KEY
	SecretKey string // STORAGE_MINIO_SECRET_KEY
	Bucket    string // STORAGE_MINIO_BUCKET
	UseSSL    bool   // STORAGE_MINIO_USE_SSL
}

// StorageConfig selects the content storage backend.
type StorageConfig struct {
	Backend        string // STORAGE_BACKEND: filesystem|object_store
	FilesystemRoot string // STORAGE_FS_ROOT: root dir for the filesystem backend
	Minio          ObjectStoreConfig
}

// TenancyConfig selects single- vs multi-tenant operation and the path
// namespace contributed to object-store keys (Part A).
type TenancyConfig struct {
	Mode          string // TENANCY_MODE: single|multi
	DefaultTenant string // TENANCY_DEFAULT_TENANT: tenant used in single mode
	PathNamespace string // TENANCY_PATH_NAMESPACE (e.g. "docex")
	PathPrefix    string // TENANCY_PATH_PREFIX: optional extra prefix segment
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Diagnostics HTTP server
	Port         string        // just the number
	ReadTimeout  time.Duration // e.g. 15s
	WriteTimeout time.Duration // e.g. 20s
	IdleTimeout  time.Duration // e.g. 60s

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	Database DatabaseConfig
	Storage  StorageConfig
	Tenancy  TenancyConfig
	OTEL     OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables (merging an optional
// .env file for development), applies defaults, normalizes values, and
// validates the result.
func Load() (Config, error) {
	// Development convenience; absent .env files are not an error.
	_ = godotenv.Load()

	cfg := Config{
		// Diagnostics server
		Port:         getenv("PORT", "8080"),
		ReadTimeout:  getdur("READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:  getdur("IDLE_TIMEOUT", 60*time.Second),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		Database: DatabaseConfig{
			Backend:     strings.ToLower(getenv("DB_BACKEND", DBBackendSQLite)),
			DataDir:     getenv("DB_DATA_DIR", "data/tenants"),
			PostgresDSN: getenv("DB_POSTGRES_DSN", ""),
		},

		Storage: StorageConfig{
			Backend:        strings.ToLower(getenv("STORAGE_BACKEND", StorageFilesystem)),
			FilesystemRoot: getenv("STORAGE_FS_ROOT", "data/storage"),
			Minio: ObjectStoreConfig{
				Endpoint:  getenv("STORAGE_MINIO_ENDPOINT", ""),
				AccessKey: getenv("STORAGE_MINIO_ACCESS_KEY", ""),
				SecretKey: getenv("STORAGE_MINIO_SECRET_KEY", ""),
				Bucket:    getenv("STORAGE_MINIO_BUCKET", ""),
				UseSSL:    getbool("STORAGE_MINIO_USE_SSL", false),
			},
		},

		Tenancy: TenancyConfig{
			Mode:          strings.ToLower(getenv("TENANCY_MODE", TenancyMulti)),
			DefaultTenant: getenv("TENANCY_DEFAULT_TENANT", "default_tenant"),
			PathNamespace: getenv("TENANCY_PATH_NAMESPACE", "docex"),
			PathPrefix:    getenv("TENANCY_PATH_PREFIX", ""),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-docstore-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}

	switch cfg.Database.Backend {
	case DBBackendSQLite:
		if strings.TrimSpace(cfg.Database.DataDir) == "" {
			return cfg, errors.New("DB_DATA_DIR must not be empty for the sqlite backend")
		}
	case DBBackendPostgres:
		if strings.TrimSpace(cfg.Database.PostgresDSN) == "" {
			return cfg, errors.New("DB_POSTGRES_DSN must not be empty for the postgres backend")
		}
	default:
		return cfg, errors.New("DB_BACKEND must be one of: sqlite, postgres")
	}

	switch cfg.Storage.Backend {
	case StorageFilesystem:
		if strings.TrimSpace(cfg.Storage.FilesystemRoot) == "" {
			return cfg, errors.New("STORAGE_FS_ROOT must not be empty for the filesystem backend")
		}
	case StorageObjectStore:
		if cfg.Storage.Minio.Endpoint == "" || cfg.Storage.Minio.Bucket == "" {
			return cfg, errors.New("STORAGE_MINIO_ENDPOINT and STORAGE_MINIO_BUCKET must be set for the object_store backend")
		}
	default:
		return cfg, errors.New("STORAGE_BACKEND must be one of: filesystem, object_store")
	}

	switch cfg.Tenancy.Mode {
	case TenancySingle, TenancyMulti:
	default:
		return cfg, errors.New("TENANCY_MODE must be one of: single, multi")
	}
	if cfg.Tenancy.Mode == TenancySingle && strings.TrimSpace(cfg.Tenancy.DefaultTenant) == "" {
		return cfg, errors.New("TENANCY_DEFAULT_TENANT must not be empty in single mode")
	}

	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
