// internal/httpapi/middleware.go
//
// Security headers and the tenant binder.
//
// Context
// -------
// The binder is where a request stops being anonymous traffic and
// becomes "this caller acting inside this tenant":
//
//   1. Resolve the slug from the configured source.
//   2. Load the tenant through the read-mostly cache; cancelled tenants
//      resolve as not found.
//   3. Open a short scoped transaction to read the caller's membership
//      under row-level security, deriving the permission set from the
//      role table.
//   4. Stash the binding in the request context for handlers and
//      RequirePermission.
//
// A suspended tenant still binds: its owner must be able to reach the
// activate endpoint.  Handlers that must not serve suspended tenants
// check Binding.Tenant.Status themselves.
package httpapi

import (
	"context"
	"net/http"

	"github.com/keelhq/tenantcore/internal/apperr"
	"github.com/keelhq/tenantcore/internal/core"
	"github.com/keelhq/tenantcore/internal/identity"
	"github.com/keelhq/tenantcore/internal/membership"
	"github.com/keelhq/tenantcore/internal/requestinfo"
	"github.com/keelhq/tenantcore/internal/scope"
	"github.com/keelhq/tenantcore/internal/service"
	"github.com/keelhq/tenantcore/internal/tenant"
)

// Security sets defensive headers for every response.
func Security(next http.Handler) http.Handler {
	const (
		hsts  = "max-age=63072000; includeSubDomains; preload"
		csp   = "default-src 'none'; frame-ancestors 'none'"
		xfo   = "DENY"
		nosn  = "nosniff"
		refer = "strict-origin-when-cross-origin"
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Strict-Transport-Security", hsts)
		h.Set("Content-Security-Policy", csp)
		h.Set("X-Frame-Options", xfo)
		h.Set("X-Content-Type-Options", nosn)
		h.Set("Referrer-Policy", refer)
		next.ServeHTTP(w, r)
	})
}

// TenantBinder resolves the tenant and validates the caller's
// membership before any tenant-scoped handler runs.
func (a *API) TenantBinder(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug, err := a.resolver.Resolve(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if slug == "" {
			writeError(w, apperr.New(apperr.TenantRequired, "tenant could not be resolved from the request"))
			return
		}

		t, err := a.cache.Get(r.Context(), slug)
		if err != nil {
			writeError(w, err)
			return
		}
		if t.Status == tenant.StatusCancelled {
			writeError(w, apperr.New(apperr.TenantNotFound, "tenant not found"))
			return
		}

		id, ok := identity.FromContext(r.Context())
		if !ok {
			writeError(w, apperr.New(apperr.ContextMissing, "tenant binder ran without an authenticated identity"))
			return
		}

		var (
			m     *membership.Membership
			perms membership.PermissionSet
		)
		err = scope.Run(r.Context(), a.db, t.ID, func(ctx context.Context, sc *scope.Scope) error {
			m, perms, err = membership.Validate(ctx, sc, id.Subject)
			return err
		})
		// A caller without a membership still binds: invitation accept
		// is reachable by non-members, and every guarded handler turns
		// the nil membership into MembershipNotFound itself.
		if err != nil && apperr.KindOf(err) != apperr.MembershipNotFound {
			writeError(w, err)
			return
		}

		b := &core.Binding{
			Tenant:      t,
			Membership:  m,
			Permissions: perms,
			Info:        requestinfo.FromContext(r.Context()),
		}
		next.ServeHTTP(w, r.WithContext(core.WithBinding(r.Context(), b)))
	})
}

// actor converts the request binding into the audit actor.
func actor(b *core.Binding) service.Actor {
	a := service.Actor{}
	if b == nil {
		return a
	}
	if b.Membership != nil {
		a.MembershipID = b.Membership.ID
	}
	if b.Info != nil {
		a.IP = b.Info.IPString()
		a.UserAgent = b.Info.UA.Raw
	}
	return a
}
