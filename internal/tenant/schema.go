// Package tenant – tenant boundary schema management and validation.
package tenant

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/docex/go-docstore-backend/internal/domain"
	"github.com/docex/go-docstore-backend/internal/repo"
)

// expectedIndexes lists the composite and unique indexes that every freshly
// provisioned boundary must carry, keyed by model.
var expectedIndexes = []struct {
	model any
	name  string
}{
	{&domain.Basket{}, "ux_basket_name"},
	{&domain.Document{}, "idx_doc_basket_status"},
	{&domain.Document{}, "idx_doc_basket_type"},
	{&domain.Document{}, "idx_doc_basket_created"},
	{&domain.OperationDependency{}, "ux_op_dep"},
	{&domain.DocumentMetadata{}, "ux_doc_meta"},
	{&domain.DocumentMetadata{}, "idx_meta_key_value"},
	{&domain.DocumentMetadata{}, "idx_meta_doc_key_value"},
	{&domain.DocEvent{}, "ux_event_id"},
}

// migrateCore creates all core tables and indexes inside a boundary.
func migrateCore(db *gorm.DB) error {
	return repo.AutoMigrate(db)
}

// missingCoreObjects returns a description of every expected table or
// index absent from the boundary. An empty slice means the schema is
// complete.
func missingCoreObjects(db *gorm.DB) []string {
	var missing []string
	mig := db.Migrator()

	for _, model := range repo.CoreModels() {
		if !mig.HasTable(model) {
			stmt := &gorm.Statement{DB: db}
			_ = stmt.Parse(model)
			missing = append(missing, fmt.Sprintf("table %s", stmt.Table))
		}
	}
	for _, idx := range expectedIndexes {
		if !mig.HasIndex(idx.model, idx.name) {
			missing = append(missing, fmt.Sprintf("index %s", idx.name))
		}
	}
	return missing
}

// validateSchema verifies a freshly provisioned boundary, returning a
// SchemaValidationError listing the missing objects when any expected
// table or index is absent.
func validateSchema(db *gorm.DB, tenantID string) error {
	if missing := missingCoreObjects(db); len(missing) > 0 {
		return &SchemaValidationError{TenantID: tenantID, Missing: missing}
	}
	return nil
}
