// Package tenant – identifier validation.
package tenant

import (
	"fmt"
	"regexp"
)

// BootstrapTenantID is the reserved identifier of the distinguished system
// tenant that hosts the tenant registry itself.
const BootstrapTenantID = "docex_system"

// tenantIDPattern: 1-30 characters, letters/digits/underscore, starting
// with a letter so the id is usable verbatim as a Postgres schema name and
// a filesystem-safe database name.
var tenantIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,29}$`)

// reservedTenantIDs can never be provisioned by callers. The bootstrap id
// is created exclusively by the bootstrap manager; the rest are database
// namespaces that a tenant schema or database file must not shadow.
var reservedTenantIDs = map[string]struct{}{
	BootstrapTenantID:    {},
	"main":               {},
	"temp":               {},
	"public":             {},
	"system":             {},
	"default":            {},
	"pg_catalog":         {},
	"information_schema": {},
	"template0":          {},
	"template1":          {},
}

// ValidateTenantID checks id against the naming rule and the reserved-word
// blacklist, returning an error wrapping ErrInvalidTenantID that names the
// violated rule.
func ValidateTenantID(id string) error {
	if !tenantIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q must be 1-30 lowercase letters, digits, or underscores, starting with a letter", ErrInvalidTenantID, id)
	}
	if _, reserved := reservedTenantIDs[id]; reserved {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidTenantID, id)
	}
	return nil
}
