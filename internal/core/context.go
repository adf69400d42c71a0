// internal/core/context.go
//
// Central per-request binding.
//
// Context
// -------
// The tenant binder builds a *core.Binding after resolving the tenant
// and validating the caller's membership, then stores it in the request
// context.  It bundles:
//
//   - Tenant      – resolved tenant row (read-only).
//   - Membership  – the caller's row in tenant_users, nil for routes
//                   that do not require membership.
//   - Permissions – static permission set derived from the membership
//                   role.  Empty when the membership is not active.
//   - Info        – parsed UA, client IP, and timestamp.
//
// Notes
// -----
// • Handlers must treat Tenant and Membership as read-only.
package core

import (
	"context"

	"github.com/keelhq/tenantcore/internal/apperr"
	"github.com/keelhq/tenantcore/internal/membership"
	"github.com/keelhq/tenantcore/internal/requestinfo"
	"github.com/keelhq/tenantcore/internal/tenant"
)

// Binding is the per-request tenant context handlers operate under.
type Binding struct {
	Tenant      *tenant.Tenant
	Membership  *membership.Membership
	Permissions membership.PermissionSet
	Info        *requestinfo.Info
}

type ctxKey struct{}

// WithBinding returns a child context carrying b.
func WithBinding(ctx context.Context, b *Binding) context.Context {
	return context.WithValue(ctx, ctxKey{}, b)
}

// FromContext returns the binding stored by the tenant binder, or nil
// when the request never passed through it.
func FromContext(ctx context.Context) *Binding {
	v, _ := ctx.Value(ctxKey{}).(*Binding)
	return v
}

// HasPermission reports whether the bound caller holds p.  It returns
// false when no binding or membership is present.
func HasPermission(ctx context.Context, p membership.Permission) bool {
	b := FromContext(ctx)
	return b != nil && b.Permissions.Has(p)
}

// RequirePermission returns nil when the bound caller holds p.
// A missing binding is reported as ContextMissing so it surfaces as an
// operator fault rather than a policy denial.
func RequirePermission(ctx context.Context, p membership.Permission) error {
	b := FromContext(ctx)
	if b == nil || b.Tenant == nil {
		return apperr.New(apperr.ContextMissing, "request reached a guarded handler without tenant binding")
	}
	if b.Membership == nil {
		return apperr.New(apperr.MembershipNotFound, "caller is not a member of this tenant")
	}
	if !b.Permissions.Has(p) {
		return apperr.New(apperr.InsufficientPermissions, "caller lacks permission").
			WithField("permission", string(p))
	}
	return nil
}
