// Package domain – tenant registry model.
//
// Tenant rows live only inside the bootstrap ("system") tenant's isolation
// boundary; they are the durable registry consulted by every tenant-scoped
// operation. The bootstrap tenant registers itself during initialization.
package domain

import "time"

// Tenant statuses.
const (
	TenantStatusActive   = "active"
	TenantStatusInactive = "inactive"
)

// Tenant maps a tenant identifier to its isolation boundary: a dedicated
// Postgres schema name or a dedicated SQLite database file path, depending
// on the active provisioning strategy. Rows are created once and never
// physically deleted by the core; only Status may change afterwards.
type Tenant struct {
	ID          string    `json:"id"           gorm:"type:varchar(30);primaryKey"`
	DisplayName string    `json:"display_name" gorm:"type:varchar(255);not null"`
	Boundary    string    `json:"boundary"     gorm:"type:varchar(512);not null"`
	IsBootstrap bool      `json:"is_bootstrap" gorm:"not null;default:false"`
	Status      string    `json:"status"       gorm:"type:varchar(16);not null;default:'active'"`
	CreatedBy   string    `json:"created_by"   gorm:"type:varchar(255);not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Tenant.
func (Tenant) TableName() string { return "tenants" }
