// internal/membership/validator.go
//
// Membership & permission validation.
//
// Context
// -------
// After the resolver has produced a tenant and the identity middleware a
// verified caller, Validate confirms the caller actually belongs to that
// tenant and computes the effective permission set.  A membership that is
// not active keeps its identity (audit entries still attribute actions)
// but degrades to the empty permission set: a suspended member can be
// looked at, never act.
package membership

import (
	"context"

	"github.com/keelhq/tenantcore/internal/apperr"
	"github.com/keelhq/tenantcore/internal/scope"
)

// Validate looks up the caller's membership in the scoped tenant and
// returns it with the permission set derived from its role.
func Validate(ctx context.Context, s *scope.Scope, externalID string) (*Membership, PermissionSet, error) {
	m, err := ByExternalID(ctx, s, externalID)
	if err != nil {
		return nil, nil, err
	}
	if m.Status != StatusActive {
		return m, PermissionSet{}, nil
	}
	return m, PermissionsFor(m.Role), nil
}

// Require returns InsufficientPermissions unless ps contains p.
func Require(ps PermissionSet, p Permission) error {
	if !ps.Has(p) {
		return apperr.Newf(apperr.InsufficientPermissions, "missing permission %q", p)
	}
	return nil
}
