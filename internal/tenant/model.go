// internal/tenant/model.go
//
// Tenant row model.
//
// Context
// -------
// The tenant is the root of data partitioning: every other table hangs
// off tenants.id with ON DELETE CASCADE, and every one of those tables is
// gated by a row-level-security policy keyed on the session scope.  The
// tenants table itself is deliberately NOT policy-protected; you cannot
// look up the boundary you are about to enforce from inside it.
package tenant

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// Status enumerates the tenant lifecycle states.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusCancelled:
		return true
	}
	return false
}

// Tenant mirrors one row of the `tenants` table.
type Tenant struct {
	ID        uuid.UUID      `db:"id"`
	Slug      string         `db:"slug"`
	Name      string         `db:"name"`
	Status    Status         `db:"status"`
	Settings  types.JSONText `db:"settings"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}
