// internal/service/tenant.go
//
// Tenant lifecycle operations.
//
// Context
// -------
// CreateTenant is the only operation that opens a scope before the
// tenant row exists: the id is generated client-side, the scope is
// opened for it, and the tenant row plus its owner membership commit
// in the same transaction.  A failure at any point rolls both back, so
// a tenant can never exist without exactly one owner.
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/keelhq/tenantcore/internal/apperr"
	"github.com/keelhq/tenantcore/internal/membership"
	"github.com/keelhq/tenantcore/internal/scope"
	"github.com/keelhq/tenantcore/internal/tenant"
)

// CreateTenantInput carries the fields for tenant creation.  Slug is
// optional; when empty it is derived from Name.
type CreateTenantInput struct {
	Slug            string
	Name            string
	OwnerExternalID string
	OwnerEmail      string
}

// CreateTenant creates a tenant together with its owner membership.
func (s *Service) CreateTenant(ctx context.Context, actor Actor, in CreateTenantInput) (*tenant.Tenant, *membership.Membership, error) {
	fields := map[string]string{}
	in.Name = strings.TrimSpace(in.Name)
	in.OwnerExternalID = strings.TrimSpace(in.OwnerExternalID)
	in.OwnerEmail = strings.ToLower(strings.TrimSpace(in.OwnerEmail))
	if in.Name == "" {
		fields["name"] = "required"
	}
	if in.OwnerExternalID == "" {
		fields["owner_external_id"] = "required"
	}
	if in.OwnerEmail == "" || !strings.Contains(in.OwnerEmail, "@") {
		fields["owner_email"] = "must be a valid address"
	}

	slug := in.Slug
	if slug == "" {
		slug = tenant.NormalizeSlug(in.Name)
	} else {
		slug = strings.ToLower(strings.TrimSpace(slug))
	}
	if !tenant.ValidateSlug(slug) {
		fields["slug"] = "2-50 chars, lowercase letters, digits, and hyphens"
	}
	if len(fields) > 0 {
		return nil, nil, apperr.Invalid("invalid tenant payload", fields)
	}

	id := uuid.New()
	var (
		t     *tenant.Tenant
		owner *membership.Membership
	)
	err := scope.Run(ctx, s.db, id, func(ctx context.Context, sc *scope.Scope) error {
		tx, err := sc.Unscoped()
		if err != nil {
			return err
		}
		taken, err := tenant.SlugTaken(ctx, tx, slug)
		if err != nil {
			return err
		}
		if taken {
			return ruleViolation("slug already in use")
		}
		t, err = tenant.Insert(ctx, tx, &tenant.Tenant{
			ID:     id,
			Slug:   slug,
			Name:   in.Name,
			Status: tenant.StatusActive,
		})
		if err != nil {
			return err
		}
		owner, err = membership.Insert(ctx, sc, &membership.Membership{
			ExternalID: in.OwnerExternalID,
			Email:      in.OwnerEmail,
			Role:       membership.RoleOwner,
			Status:     membership.StatusActive,
		})
		if err != nil {
			return err
		}
		creator := actor
		creator.MembershipID = owner.ID
		return s.record(ctx, sc, creator, "tenant.create", "tenant", id.String(), map[string]any{
			"slug": slug,
			"name": in.Name,
		})
	})
	if err != nil {
		return nil, nil, mapUnique(err, "slug already in use")
	}
	return t, owner, nil
}

// UpdateTenant changes the display name and, when settings is non-nil,
// replaces the settings document.  The slug is immutable.
func (s *Service) UpdateTenant(ctx context.Context, actor Actor, tenantID uuid.UUID, name string, settings types.JSONText) (*tenant.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Invalid("invalid tenant payload", map[string]string{"name": "required"})
	}
	var t *tenant.Tenant
	err := scope.Run(ctx, s.db, tenantID, func(ctx context.Context, sc *scope.Scope) error {
		tx, err := sc.Unscoped()
		if err != nil {
			return err
		}
		t, err = tenant.Update(ctx, tx, tenantID, name, settings)
		if err != nil {
			return err
		}
		return s.record(ctx, sc, actor, "tenant.update", "tenant", tenantID.String(), map[string]any{
			"name": name,
		})
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(t.Slug)
	return t, nil
}

// SuspendTenant moves the tenant to suspended.
func (s *Service) SuspendTenant(ctx context.Context, actor Actor, tenantID uuid.UUID) (*tenant.Tenant, error) {
	return s.setStatus(ctx, actor, tenantID, tenant.StatusSuspended, "tenant.suspend")
}

// ActivateTenant moves the tenant back to active.
func (s *Service) ActivateTenant(ctx context.Context, actor Actor, tenantID uuid.UUID) (*tenant.Tenant, error) {
	return s.setStatus(ctx, actor, tenantID, tenant.StatusActive, "tenant.activate")
}

func (s *Service) setStatus(ctx context.Context, actor Actor, tenantID uuid.UUID, status tenant.Status, action string) (*tenant.Tenant, error) {
	var t *tenant.Tenant
	err := scope.Run(ctx, s.db, tenantID, func(ctx context.Context, sc *scope.Scope) error {
		tx, err := sc.Unscoped()
		if err != nil {
			return err
		}
		t, err = tenant.UpdateStatus(ctx, tx, tenantID, status)
		if err != nil {
			return err
		}
		return s.record(ctx, sc, actor, action, "tenant", tenantID.String(), map[string]any{
			"status": string(status),
		})
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(t.Slug)
	return t, nil
}

// DeleteTenant removes a tenant that has no remaining memberships.
// The membership count is re-checked inside the transaction.  No audit
// row is written: the trail is tenant-scoped and goes with the tenant.
func (s *Service) DeleteTenant(ctx context.Context, tenantID uuid.UUID) error {
	var slug string
	err := scope.Run(ctx, s.db, tenantID, func(ctx context.Context, sc *scope.Scope) error {
		n, err := membership.Count(ctx, sc)
		if err != nil {
			return err
		}
		if n > 0 {
			return ruleViolation("tenant still has memberships")
		}
		tx, err := sc.Unscoped()
		if err != nil {
			return err
		}
		t, err := tenant.ByID(ctx, tx, tenantID)
		if err != nil {
			return err
		}
		slug = t.Slug
		return tenant.Delete(ctx, tx, tenantID)
	})
	if err != nil {
		return err
	}
	s.invalidate(slug)
	return nil
}
