// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver) and Postgres, plus schema migrations.
//
// SQLite databases double as tenant isolation boundaries: one database file
// per tenant. Postgres deployments isolate tenants with one schema per
// tenant instead; OpenPostgresSchema returns a handle whose search_path is
// pinned to a single tenant's schema.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/docex/go-docstore-backend/internal/domain"
)

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	return db, nil
}

// OpenPostgres opens a Postgres database from a DSN. The returned handle
// operates on the default search_path; tenant-scoped callers should use
// OpenPostgresSchema instead.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	return db, nil
}

// OpenPostgresSchema opens a Postgres session pinned to one tenant schema.
// The schema name must already have passed tenant identifier validation;
// it is interpolated into search_path as a quoted identifier.
func OpenPostgresSchema(dsn, schema string) (*gorm.DB, error) {
	db, err := OpenPostgres(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Exec(fmt.Sprintf(`SET search_path TO %q`, schema)).Error; err != nil {
		return nil, err
	}
	return db, nil
}

// CoreModels lists every table hosted inside a tenant isolation boundary,
// in dependency order. The tenant registry (domain.Tenant) is not part of
// this list: it exists only in the bootstrap tenant's boundary.
func CoreModels() []any {
	return []any{
		&domain.Basket{},
		&domain.Document{},
		&domain.FileHistory{},
		&domain.Operation{},
		&domain.OperationDependency{},
		&domain.DocumentMetadata{},
		&domain.DocEvent{},
	}
}

// AutoMigrate creates or updates the core tables in the given boundary.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(CoreModels()...)
}
