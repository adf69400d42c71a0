// internal/service/invitation.go
//
// Invitation lifecycle: pending → accepted | expired | revoked.
//
// Context
// -------
// The state machine has one live state.  Every transition re-checks
// `status = 'pending'` in its UPDATE, so a raced transition loses with
// a rule violation instead of double-firing.
//
// Expiry on accept is the one place a failing operation still commits:
// the expired transition persists in its own transaction and the caller
// gets the violation afterwards, so later attempts see a terminal row.
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/keelhq/tenantcore/internal/apperr"
	"github.com/keelhq/tenantcore/internal/invitation"
	"github.com/keelhq/tenantcore/internal/membership"
	"github.com/keelhq/tenantcore/internal/scope"
)

// ListInvitations returns the tenant's invitations, newest first.
func (s *Service) ListInvitations(ctx context.Context, tenantID uuid.UUID) ([]invitation.Invitation, error) {
	var out []invitation.Invitation
	err := scope.Run(ctx, s.db, tenantID, func(ctx context.Context, sc *scope.Scope) error {
		rows, err := invitation.List(ctx, sc)
		if err != nil {
			return err
		}
		out = rows
		return nil
	})
	return out, err
}

// CreateInvitationInput carries the fields for a new invitation.
type CreateInvitationInput struct {
	Email string
	Role  membership.Role
}

// CreateInvitation issues a pending invitation with a fresh 256-bit
// token and a fixed seven-day window.
func (s *Service) CreateInvitation(ctx context.Context, actor Actor, tenantID uuid.UUID, in CreateInvitationInput) (*invitation.Invitation, error) {
	fields := map[string]string{}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		fields["email"] = "must be a valid address"
	}
	if !in.Role.Valid() {
		fields["role"] = "must be one of owner, admin, member, viewer"
	}
	if len(fields) > 0 {
		return nil, apperr.Invalid("invalid invitation payload", fields)
	}

	token, err := invitation.NewToken()
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "generating invitation token", err)
	}

	var out *invitation.Invitation
	err = scope.Run(ctx, s.db, tenantID, func(ctx context.Context, sc *scope.Scope) error {
		taken, err := membership.EmailTaken(ctx, sc, in.Email)
		if err != nil {
			return err
		}
		if taken {
			return ruleViolation("email already belongs to a member")
		}
		pending, err := invitation.PendingExists(ctx, sc, in.Email)
		if err != nil {
			return err
		}
		if pending {
			return ruleViolation("a pending invitation already exists for this email")
		}
		if in.Role == membership.RoleOwner {
			exists, err := membership.OwnerExists(ctx, sc, uuid.Nil)
			if err != nil {
				return err
			}
			if exists {
				return ruleViolation("tenant already has an owner")
			}
		}
		var invitedBy *uuid.UUID
		if actor.MembershipID != uuid.Nil {
			id := actor.MembershipID
			invitedBy = &id
		}
		out, err = invitation.Insert(ctx, sc, &invitation.Invitation{
			Email:     in.Email,
			Role:      in.Role,
			InvitedBy: invitedBy,
			Token:     token,
			ExpiresAt: s.now().Add(invitation.Lifetime),
		})
		if err != nil {
			return err
		}
		return s.record(ctx, sc, actor, "invitation.create", "invitation", out.ID.String(), map[string]any{
			"email": in.Email,
			"role":  string(in.Role),
		})
	})
	if err != nil {
		return nil, mapUnique(err, "a pending invitation already exists for this email")
	}
	return out, nil
}

// AcceptInvitation converts exactly one pending invitation into exactly
// one membership, or fails entirely.  The membership's email comes from
// the invitation, not the caller.
func (s *Service) AcceptInvitation(ctx context.Context, actor Actor, tenantID, invID uuid.UUID, callerExternalID string) (*membership.Membership, error) {
	callerExternalID = strings.TrimSpace(callerExternalID)
	if callerExternalID == "" {
		return nil, apperr.Invalid("invalid accept payload", map[string]string{"external_id": "required"})
	}

	var (
		expired bool
		out     *membership.Membership
	)
	err := scope.Run(ctx, s.db, tenantID, func(ctx context.Context, sc *scope.Scope) error {
		inv, err := invitation.ByID(ctx, sc, invID)
		if err != nil {
			return err
		}
		if inv.Status != invitation.StatusPending {
			return ruleViolation("invitation is not pending")
		}
		if inv.ExpiredBy(s.now()) {
			// Commit the expiry; the violation is raised after.
			if _, err := invitation.Transition(ctx, sc, invID, invitation.StatusExpired, nil); err != nil {
				return err
			}
			expired = true
			return nil
		}
		taken, err := membership.IdentityTaken(ctx, sc, callerExternalID)
		if err != nil {
			return err
		}
		if taken {
			return ruleViolation("caller is already a member of this tenant")
		}
		taken, err = membership.EmailTaken(ctx, sc, inv.Email)
		if err != nil {
			return err
		}
		if taken {
			return ruleViolation("email already belongs to a member")
		}
		if inv.Role == membership.RoleOwner {
			exists, err := membership.OwnerExists(ctx, sc, uuid.Nil)
			if err != nil {
				return err
			}
			if exists {
				return ruleViolation("tenant already has an owner")
			}
		}
		out, err = membership.Insert(ctx, sc, &membership.Membership{
			ExternalID: callerExternalID,
			Email:      inv.Email,
			Role:       inv.Role,
			Status:     membership.StatusActive,
		})
		if err != nil {
			return err
		}
		now := s.now()
		if _, err := invitation.Transition(ctx, sc, invID, invitation.StatusAccepted, &now); err != nil {
			return err
		}
		accepter := actor
		accepter.MembershipID = out.ID
		return s.record(ctx, sc, accepter, "invitation.accept", "invitation", invID.String(), map[string]any{
			"email": inv.Email,
			"role":  string(inv.Role),
		})
	})
	if err != nil {
		return nil, mapUnique(err, "membership already exists")
	}
	if expired {
		return nil, ruleViolation("invitation has expired")
	}
	return out, nil
}

// RevokeInvitation withdraws a pending invitation.
func (s *Service) RevokeInvitation(ctx context.Context, actor Actor, tenantID, invID uuid.UUID) (*invitation.Invitation, error) {
	var out *invitation.Invitation
	err := scope.Run(ctx, s.db, tenantID, func(ctx context.Context, sc *scope.Scope) error {
		inv, err := invitation.Transition(ctx, sc, invID, invitation.StatusRevoked, nil)
		if err != nil {
			return err
		}
		out = inv
		return s.record(ctx, sc, actor, "invitation.revoke", "invitation", invID.String(), map[string]any{
			"email": inv.Email,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExpireInvitations sweeps the tenant's pending invitations whose
// window has passed.  It is invoked lazily from the listing path and is
// safe to call at any time.
func (s *Service) ExpireInvitations(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	err := scope.Run(ctx, s.db, tenantID, func(ctx context.Context, sc *scope.Scope) error {
		swept, err := invitation.ExpirePending(ctx, sc, s.now())
		if err != nil {
			return err
		}
		n = swept
		return nil
	})
	return n, err
}
