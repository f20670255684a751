package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/docex/go-docstore-backend/internal/domain"
)

func newStatsDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("stats_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestBasketStats_EmptyAndPopulated(t *testing.T) {
	db := newStatsDB(t)

	count, maxAt, err := BasketStats(context.Background(), db)
	if err != nil {
		t.Fatalf("BasketStats(empty): %v", err)
	}
	if count != 0 || maxAt != nil {
		t.Fatalf("empty stats = (%d, %v); want (0, nil)", count, maxAt)
	}

	seedBasket(t, db)
	seedBasket(t, db)

	count, maxAt, err = BasketStats(context.Background(), db)
	if err != nil {
		t.Fatalf("BasketStats: %v", err)
	}
	if count != 2 || maxAt == nil || maxAt.IsZero() {
		t.Fatalf("stats = (%d, %v); want (2, recent time)", count, maxAt)
	}
}

func TestDocumentStats_PerStatusCounts(t *testing.T) {
	db := newStatsDB(t)
	b := seedBasket(t, db)

	seedDocument(t, db, b.ID, "a.pdf", "invoice", domain.DocStatusReceived)
	seedDocument(t, db, b.ID, "b.pdf", "invoice", domain.DocStatusReceived)
	seedDocument(t, db, b.ID, "c.pdf", "invoice", domain.DocStatusFailed)

	got, err := DocumentStats(context.Background(), db, b.ID)
	if err != nil {
		t.Fatalf("DocumentStats: %v", err)
	}
	if got[domain.DocStatusReceived] != 2 || got[domain.DocStatusFailed] != 1 {
		t.Fatalf("counts = %v; want RECEIVED:2 FAILED:1", got)
	}
	if _, ok := got[domain.DocStatusProcessed]; ok {
		t.Fatalf("unexpected PROCESSED bucket: %v", got)
	}
}
