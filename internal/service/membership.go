// internal/service/membership.go
//
// Membership mutations and the governance rules around the owner seat.
//
// Context
// -------
// The owner role is singular per tenant and must never disappear once
// assigned.  Three rules defend that:
//
//   - granting owner fails while another owner exists,
//   - demoting the owner requires at least one other active admin,
//   - suspending, cancelling, or deleting the owner's membership fails
//     outright (single-owner means any owner is the only one).
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/keelhq/tenantcore/internal/apperr"
	"github.com/keelhq/tenantcore/internal/membership"
	"github.com/keelhq/tenantcore/internal/scope"
)

// ListMemberships returns the tenant's members, owners first.
func (s *Service) ListMemberships(ctx context.Context, tenantID uuid.UUID) ([]membership.Membership, error) {
	var out []membership.Membership
	err := scope.Run(ctx, s.db, tenantID, func(ctx context.Context, sc *scope.Scope) error {
		rows, err := membership.List(ctx, sc)
		if err != nil {
			return err
		}
		out = rows
		return nil
	})
	return out, err
}

// CreateMembershipInput carries the fields for a direct member add.
type CreateMembershipInput struct {
	ExternalID string
	Email      string
	Role       membership.Role
}

// CreateMembership adds a member directly, bypassing the invitation
// flow.  Identity, email, and owner uniqueness are all re-checked inside
// the transaction.
func (s *Service) CreateMembership(ctx context.Context, actor Actor, tenantID uuid.UUID, in CreateMembershipInput) (*membership.Membership, error) {
	fields := map[string]string{}
	in.ExternalID = strings.TrimSpace(in.ExternalID)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.ExternalID == "" {
		fields["external_id"] = "required"
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		fields["email"] = "must be a valid address"
	}
	if !in.Role.Valid() {
		fields["role"] = "must be one of owner, admin, member, viewer"
	}
	if len(fields) > 0 {
		return nil, apperr.Invalid("invalid membership payload", fields)
	}

	var out *membership.Membership
	err := scope.Run(ctx, s.db, tenantID, func(ctx context.Context, sc *scope.Scope) error {
		taken, err := membership.IdentityTaken(ctx, sc, in.ExternalID)
		if err != nil {
			return err
		}
		if taken {
			return ruleViolation("identity already has a membership in this tenant")
		}
		taken, err = membership.EmailTaken(ctx, sc, in.Email)
		if err != nil {
			return err
		}
		if taken {
			return ruleViolation("email already has a membership in this tenant")
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
		out, err = membership.Insert(ctx, sc, &membership.Membership{
			ExternalID: in.ExternalID,
			Email:      in.Email,
			Role:       in.Role,
			Status:     membership.StatusActive,
		})
		if err != nil {
			return err
		}
		return s.record(ctx, sc, actor, "member.create", "membership", out.ID.String(), map[string]any{
			"email": in.Email,
			"role":  string(in.Role),
		})
	})
	if err != nil {
		return nil, mapUnique(err, "membership already exists")
	}
	return out, nil
}

// UpdateMembershipRole reassigns a member's role under the owner rules.
func (s *Service) UpdateMembershipRole(ctx context.Context, actor Actor, tenantID, memberID uuid.UUID, newRole membership.Role) (*membership.Membership, error) {
	if !newRole.Valid() {
		return nil, apperr.Invalid("invalid role", map[string]string{"role": "must be one of owner, admin, member, viewer"})
	}
	var out *membership.Membership
	err := scope.Run(ctx, s.db, tenantID, func(ctx context.Context, sc *scope.Scope) error {
		m, err := membership.ByID(ctx, sc, memberID)
		if err != nil {
			return err
		}
		if m.Role == newRole {
			out = m
			return nil
		}
		if newRole == membership.RoleOwner {
			exists, err := membership.OwnerExists(ctx, sc, m.ID)
			if err != nil {
				return err
			}
			if exists {
				return ruleViolation("tenant already has an owner")
			}
		}
		if m.Role == membership.RoleOwner {
			admins, err := membership.CountActiveAdmins(ctx, sc, m.ID)
			if err != nil {
				return err
			}
			if admins == 0 {
				return ruleViolation("demoting the owner requires another active admin")
			}
		}
		out, err = membership.UpdateRole(ctx, sc, memberID, newRole)
		if err != nil {
			return err
		}
		return s.record(ctx, sc, actor, "member.role_change", "membership", memberID.String(), map[string]any{
			"from": string(m.Role),
			"to":   string(newRole),
		})
	})
	if err != nil {
		return nil, mapUnique(err, "tenant already has an owner")
	}
	return out, nil
}

// UpdateMembershipStatus suspends or reinstates a member.  The owner's
// membership can only move back to active.
func (s *Service) UpdateMembershipStatus(ctx context.Context, actor Actor, tenantID, memberID uuid.UUID, newStatus membership.Status) (*membership.Membership, error) {
	if !newStatus.Valid() {
		return nil, apperr.Invalid("invalid status", map[string]string{"status": "must be one of active, suspended, cancelled"})
	}
	var out *membership.Membership
	err := scope.Run(ctx, s.db, tenantID, func(ctx context.Context, sc *scope.Scope) error {
		m, err := membership.ByID(ctx, sc, memberID)
		if err != nil {
			return err
		}
		if m.Role == membership.RoleOwner && newStatus != membership.StatusActive {
			return ruleViolation("cannot suspend the tenant's only owner")
		}
		out, err = membership.UpdateStatus(ctx, sc, memberID, newStatus)
		if err != nil {
			return err
		}
		return s.record(ctx, sc, actor, "member.status_change", "membership", memberID.String(), map[string]any{
			"from": string(m.Status),
			"to":   string(newStatus),
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteMembership removes a member.  Removing the owner is refused.
func (s *Service) DeleteMembership(ctx context.Context, actor Actor, tenantID, memberID uuid.UUID) error {
	return scope.Run(ctx, s.db, tenantID, func(ctx context.Context, sc *scope.Scope) error {
		m, err := membership.ByID(ctx, sc, memberID)
		if err != nil {
			return err
		}
		if m.Role == membership.RoleOwner {
			return ruleViolation("cannot remove the tenant's only owner")
		}
		if err := membership.Delete(ctx, sc, memberID); err != nil {
			return err
		}
		return s.record(ctx, sc, actor, "member.delete", "membership", memberID.String(), map[string]any{
			"email": m.Email,
		})
	})
}

// RecordLogin stamps last_login_at for the caller's membership.  It is
// a plain touch and writes no audit row.
func (s *Service) RecordLogin(ctx context.Context, tenantID, memberID uuid.UUID) error {
	return scope.Run(ctx, s.db, tenantID, func(ctx context.Context, sc *scope.Scope) error {
		return membership.TouchLogin(ctx, sc, memberID)
	})
}
