// internal/invitation/model.go
//
// Invitation row model and its state machine.
//
// Context
// -------
// An invitation is a time-bounded, single-use offer to join a tenant
// with a proposed role.  The lifecycle is a one-way fan-out from
// pending:
//
//	pending --accept--> accepted   (creates exactly one membership)
//	pending --expire--> expired    (clock passed expires_at)
//	pending --revoke--> revoked
//
// accepted, expired, and revoked are terminal; any transition attempted
// from them is a business-rule violation.
package invitation

import (
	"time"

	"github.com/google/uuid"

	"github.com/keelhq/tenantcore/internal/membership"
)

// Lifetime is the fixed validity window stamped on every invitation.
const Lifetime = 7 * 24 * time.Hour

// Status enumerates invitation states.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusExpired  Status = "expired"
	StatusRevoked  Status = "revoked"
)

// Terminal reports whether no further transition is valid from s.
func (s Status) Terminal() bool { return s != StatusPending }

// Invitation mirrors one row of the `invitations` table.
type Invitation struct {
	ID         uuid.UUID       `db:"id"`
	TenantID   uuid.UUID       `db:"tenant_id"`
	Email      string          `db:"email"`
	Role       membership.Role `db:"role"`
	InvitedBy  *uuid.UUID      `db:"invited_by"`
	Token      string          `db:"token"`
	Status     Status          `db:"status"`
	ExpiresAt  time.Time       `db:"expires_at"`
	AcceptedAt *time.Time      `db:"accepted_at"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

// ExpiredBy reports whether the invitation's window has passed at now.
func (i *Invitation) ExpiredBy(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}
