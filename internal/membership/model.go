// internal/membership/model.go
//
// Membership row model and the role → permission table.
//
// Context
// -------
// A membership ties one verified external identity to one tenant with a
// role.  Roles are a closed, totally-ordered enumeration (owner > admin >
// member > viewer); owner is singular per tenant and protected by both a
// partial unique index and the service-layer rules.  The permission table
// is data: every role maps to a fixed set, and an unknown role maps to
// the empty set rather than panicking, so a bad row degrades to "can do
// nothing" instead of "can do anything".
package membership

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

//
// Roles
//

// Role is the closed privilege enumeration.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// Rank orders roles by privilege; higher outranks lower.  Unknown roles
// rank below viewer.
func (r Role) Rank() int {
	switch r {
	case RoleOwner:
		return 4
	case RoleAdmin:
		return 3
	case RoleMember:
		return 2
	case RoleViewer:
		return 1
	}
	return 0
}

//
// Statuses
//

// Status enumerates membership lifecycle states.
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

//
// Permissions
//

// Permission names one guarded capability.
type Permission string

const (
	PermTenantRead    Permission = "tenant.read"
	PermTenantUpdate  Permission = "tenant.update"
	PermTenantDelete  Permission = "tenant.delete"
	PermMembersRead   Permission = "members.read"
	PermMembersManage Permission = "members.manage"
	PermInvitesManage Permission = "invites.manage"
	PermSettingsRead  Permission = "settings.read"
	PermSettingsWrite Permission = "settings.write"
	PermAuditRead     Permission = "audit.read"
)

// PermissionSet is the effective capability set computed from a role.
type PermissionSet map[Permission]struct{}

// Has reports whether p is in the set.
func (ps PermissionSet) Has(p Permission) bool {
	_, ok := ps[p]
	return ok
}

// rolePermissions is the static role → permission table.  Keep it total:
// every declared role appears here.
var rolePermissions = map[Role][]Permission{
	RoleOwner: {
		PermTenantRead, PermTenantUpdate, PermTenantDelete,
		PermMembersRead, PermMembersManage,
		PermInvitesManage,
		PermSettingsRead, PermSettingsWrite,
		PermAuditRead,
	},
	RoleAdmin: {
		PermTenantRead, PermTenantUpdate,
		PermMembersRead, PermMembersManage,
		PermInvitesManage,
		PermSettingsRead, PermSettingsWrite,
		PermAuditRead,
	},
	RoleMember: {
		PermTenantRead,
		PermMembersRead,
		PermSettingsRead,
	},
	RoleViewer: {
		PermTenantRead,
		PermMembersRead,
	},
}

// PermissionsFor returns the permission set for role.  Unknown roles get
// an empty set.
func PermissionsFor(role Role) PermissionSet {
	perms := rolePermissions[role]
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

//
// Row model
//

// Membership mirrors one row of the `tenant_users` table.
type Membership struct {
	ID          uuid.UUID      `db:"id"`
	TenantID    uuid.UUID      `db:"tenant_id"`
	ExternalID  string         `db:"external_id"`
	Email       string         `db:"email"`
	Role        Role           `db:"role"`
	Status      Status         `db:"status"`
	Metadata    types.JSONText `db:"metadata"`
	LastLoginAt *time.Time     `db:"last_login_at"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}
