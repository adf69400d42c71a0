// internal/invitation/store.go
//
// Scoped queries over the `invitations` table.
//
// The partial unique index on (tenant_id, lower(email)) WHERE status =
// 'pending' backs the one-pending-invitation rule underneath the
// service-layer check.

package invitation

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/keelhq/tenantcore/internal/apperr"
	"github.com/keelhq/tenantcore/internal/scope"
)

const columns = `id, tenant_id, email, role, invited_by, token, status, expires_at, accepted_at, created_at, updated_at`

// ByID fetches an invitation within the scoped tenant.  Absence is a
// business-rule failure, not a 404: invitation ids are only ever seen by
// members of the tenant that issued them.
func ByID(ctx context.Context, s *scope.Scope, id uuid.UUID) (*Invitation, error) {
	const query = `
        SELECT ` + columns + `
        FROM   invitations
        WHERE  tenant_id = $1 AND id = $2`
	var inv Invitation
	if err := s.Get(ctx, &inv, query, s.TenantID(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.BusinessRuleViolation, "invitation not found")
		}
		return nil, err
	}
	return &inv, nil
}

// PendingExists reports whether a pending invitation already covers
// email in the scoped tenant.
func PendingExists(ctx context.Context, s *scope.Scope, email string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM invitations
            WHERE  tenant_id = $1 AND lower(email) = lower($2) AND status = 'pending')`
	var exists bool
	if err := s.Get(ctx, &exists, query, s.TenantID(), email); err != nil {
		return false, err
	}
	return exists, nil
}

// List returns the scoped tenant's invitations, newest first.
func List(ctx context.Context, s *scope.Scope) ([]Invitation, error) {
	const query = `
        SELECT ` + columns + `
        FROM   invitations
        WHERE  tenant_id = $1
        ORDER  BY created_at DESC`
	rows := make([]Invitation, 0, 8)
	if err := s.Select(ctx, &rows, query, s.TenantID()); err != nil {
		return nil, err
	}
	return rows, nil
}

// Insert creates a pending invitation.  Tenant id comes from the scope.
func Insert(ctx context.Context, s *scope.Scope, inv *Invitation) (*Invitation, error) {
	const query = `
        INSERT INTO invitations (id, tenant_id, email, role, invited_by, token, status, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7)
        RETURNING ` + columns
	id := inv.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	var out Invitation
	if err := s.Get(ctx, &out, query,
		id, s.TenantID(), inv.Email, inv.Role, inv.InvitedBy, inv.Token, inv.ExpiresAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// Transition moves a pending invitation to a terminal status.  The WHERE
// clause re-checks status = 'pending' inside the transaction, so a
// concurrent transition loses cleanly instead of double-firing.
func Transition(ctx context.Context, s *scope.Scope, id uuid.UUID, to Status, acceptedAt *time.Time) (*Invitation, error) {
	const query = `
        UPDATE invitations
        SET    status = $3, accepted_at = $4
        WHERE  tenant_id = $1 AND id = $2 AND status = 'pending'
        RETURNING ` + columns
	var out Invitation
	if err := s.Get(ctx, &out, query, s.TenantID(), id, to, acceptedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.BusinessRuleViolation, "invitation is not pending")
		}
		return nil, err
	}
	return &out, nil
}

// ExpirePending sweeps every pending invitation whose window has passed
// and returns how many were transitioned.
func ExpirePending(ctx context.Context, s *scope.Scope, now time.Time) (int64, error) {
	res, err := s.Exec(ctx, `
        UPDATE invitations
        SET    status = 'expired'
        WHERE  tenant_id = $1 AND status = 'pending' AND expires_at <= $2`,
		s.TenantID(), now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
