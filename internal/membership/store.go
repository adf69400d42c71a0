// internal/membership/store.go
//
// Scoped queries over the `tenant_users` table.
//
// Context
// -------
// Every helper takes a *scope.Scope,  so membership data is unreachable
// without an established tenant scope.  Queries still filter by
// tenant_id explicitly; the RLS policy underneath enforces the same
// predicate as defense-in-depth, and the WITH CHECK clause rejects any
// insert whose tenant_id disagrees with the session scope.
package membership

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/keelhq/tenantcore/internal/apperr"
	"github.com/keelhq/tenantcore/internal/scope"
)

const columns = `id, tenant_id, external_id, email, role, status, metadata, last_login_at, created_at, updated_at`

// ByExternalID fetches the caller's membership in the scoped tenant.
func ByExternalID(ctx context.Context, s *scope.Scope, externalID string) (*Membership, error) {
	const query = `
        SELECT ` + columns + `
        FROM   tenant_users
        WHERE  tenant_id = $1 AND external_id = $2`
	var m Membership
	if err := s.Get(ctx, &m, query, s.TenantID(), externalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.MembershipNotFound, "caller is not a member of this tenant")
		}
		return nil, err
	}
	return &m, nil
}

// ByID fetches a membership by primary key within the scoped tenant.
func ByID(ctx context.Context, s *scope.Scope, id uuid.UUID) (*Membership, error) {
	const query = `
        SELECT ` + columns + `
        FROM   tenant_users
        WHERE  tenant_id = $1 AND id = $2`
	var m Membership
	if err := s.Get(ctx, &m, query, s.TenantID(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.MembershipNotFound, "membership not found")
		}
		return nil, err
	}
	return &m, nil
}

// EmailTaken reports whether email already belongs to a membership in
// the scoped tenant.  Comparison is case-insensitive, matching the
// unique index on lower(email).
func EmailTaken(ctx context.Context, s *scope.Scope, email string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM tenant_users
            WHERE  tenant_id = $1 AND lower(email) = lower($2))`
	var taken bool
	if err := s.Get(ctx, &taken, query, s.TenantID(), email); err != nil {
		return false, err
	}
	return taken, nil
}

// IdentityTaken reports whether externalID already has a membership in
// the scoped tenant.
func IdentityTaken(ctx context.Context, s *scope.Scope, externalID string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM tenant_users
            WHERE  tenant_id = $1 AND external_id = $2)`
	var taken bool
	if err := s.Get(ctx, &taken, query, s.TenantID(), externalID); err != nil {
		return false, err
	}
	return taken, nil
}

// OwnerExists reports whether the scoped tenant has an owner membership
// other than exclude (pass uuid.Nil to count them all).
func OwnerExists(ctx context.Context, s *scope.Scope, exclude uuid.UUID) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM tenant_users
            WHERE  tenant_id = $1 AND role = 'owner' AND id <> $2)`
	var exists bool
	if err := s.Get(ctx, &exists, query, s.TenantID(), exclude); err != nil {
		return false, err
	}
	return exists, nil
}

// CountActiveAdmins returns the number of active admin memberships in
// the scoped tenant, excluding the given id.
func CountActiveAdmins(ctx context.Context, s *scope.Scope, exclude uuid.UUID) (int, error) {
	const query = `
        SELECT COUNT(*) FROM tenant_users
        WHERE  tenant_id = $1 AND role = 'admin' AND status = 'active' AND id <> $2`
	var n int
	if err := s.Get(ctx, &n, query, s.TenantID(), exclude); err != nil {
		return 0, err
	}
	return n, nil
}

// Count returns the total number of memberships in the scoped tenant.
func Count(ctx context.Context, s *scope.Scope) (int, error) {
	const query = `SELECT COUNT(*) FROM tenant_users WHERE tenant_id = $1`
	var n int
	if err := s.Get(ctx, &n, query, s.TenantID()); err != nil {
		return 0, err
	}
	return n, nil
}

// List returns every membership in the scoped tenant, owners first.
func List(ctx context.Context, s *scope.Scope) ([]Membership, error) {
	const query = `
        SELECT ` + columns + `
        FROM   tenant_users
        WHERE  tenant_id = $1
        ORDER  BY CASE role
                    WHEN 'owner'  THEN 0
                    WHEN 'admin'  THEN 1
                    WHEN 'member' THEN 2
                    ELSE 3
                  END, created_at`
	rows := make([]Membership, 0, 8)
	if err := s.Select(ctx, &rows, query, s.TenantID()); err != nil {
		return nil, err
	}
	return rows, nil
}

// Insert creates a membership.  The tenant id is stamped from the scope,
// never from the caller's payload.
func Insert(ctx context.Context, s *scope.Scope, m *Membership) (*Membership, error) {
	const query = `
        INSERT INTO tenant_users (id, tenant_id, external_id, email, role, status, metadata)
        VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, '{}'::jsonb))
        RETURNING ` + columns
	id := m.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	var out Membership
	if err := s.Get(ctx, &out, query,
		id, s.TenantID(), m.ExternalID, m.Email, m.Role, m.Status, m.Metadata); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRole changes a membership's role.
func UpdateRole(ctx context.Context, s *scope.Scope, id uuid.UUID, role Role) (*Membership, error) {
	const query = `
        UPDATE tenant_users
        SET    role = $3
        WHERE  tenant_id = $1 AND id = $2
        RETURNING ` + columns
	var out Membership
	if err := s.Get(ctx, &out, query, s.TenantID(), id, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.MembershipNotFound, "membership not found")
		}
		return nil, err
	}
	return &out, nil
}

// UpdateStatus changes a membership's status.
func UpdateStatus(ctx context.Context, s *scope.Scope, id uuid.UUID, status Status) (*Membership, error) {
	const query = `
        UPDATE tenant_users
        SET    status = $3
        WHERE  tenant_id = $1 AND id = $2
        RETURNING ` + columns
	var out Membership
	if err := s.Get(ctx, &out, query, s.TenantID(), id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.MembershipNotFound, "membership not found")
		}
		return nil, err
	}
	return &out, nil
}

// Delete removes a membership within the scoped tenant.
func Delete(ctx context.Context, s *scope.Scope, id uuid.UUID) error {
	res, err := s.Exec(ctx,
		`DELETE FROM tenant_users WHERE tenant_id = $1 AND id = $2`, s.TenantID(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.New(apperr.MembershipNotFound, "membership not found")
	}
	return nil
}

// TouchLogin stamps last_login_at = now() on the membership.
func TouchLogin(ctx context.Context, s *scope.Scope, id uuid.UUID) error {
	_, err := s.Exec(ctx,
		`UPDATE tenant_users SET last_login_at = now() WHERE tenant_id = $1 AND id = $2`,
		s.TenantID(), id)
	return err
}
