// internal/httpapi/router.go
//
// Route table.
//
// Context
// -------
// Two tiers: /tenants (identity only, for bootstrapping a tenant) and
// /tenant/... (identity + resolved tenant + validated membership).
// Unauthenticated surface is limited to the liveness probe and the
// Prometheus scrape endpoint.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keelhq/tenantcore/internal/identity"
	"github.com/keelhq/tenantcore/internal/requestinfo"
	"github.com/keelhq/tenantcore/internal/service"
	"github.com/keelhq/tenantcore/internal/tenant"
)

// API bundles the dependencies every handler needs.
type API struct {
	svc       *service.Service
	db        *sqlx.DB
	cache     *tenant.Cache
	resolver  tenant.ResolverConfig
	jwtSecret []byte
}

// New builds the handler set.
func New(svc *service.Service, db *sqlx.DB, cache *tenant.Cache, resolver tenant.ResolverConfig, jwtSecret []byte) *API {
	return &API{svc: svc, db: db, cache: cache, resolver: resolver, jwtSecret: jwtSecret}
}

// Routes assembles the chi router with the full middleware chain.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(Security)
	r.Use(requestinfo.Enrich)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(a.jwtSecret))

		r.Post("/tenants", a.createTenant)

		r.Route("/tenant", func(r chi.Router) {
			r.Use(a.TenantBinder)

			r.Get("/", a.getTenant)
			r.Patch("/", a.updateTenant)
			r.Delete("/", a.deleteTenant)
			r.Post("/session", a.recordLogin)

			r.Route("/members", func(r chi.Router) {
				r.Get("/", a.listMembers)
				r.Post("/", a.createMember)
				r.Patch("/{id}/role", a.updateMemberRole)
				r.Patch("/{id}/status", a.updateMemberStatus)
				r.Delete("/{id}", a.deleteMember)
			})

			r.Route("/invitations", func(r chi.Router) {
				r.Get("/", a.listInvitations)
				r.Post("/", a.createInvitation)
				r.Post("/{id}/accept", a.acceptInvitation)
				r.Post("/{id}/revoke", a.revokeInvitation)
			})

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", a.listSettings)
				r.Get("/{key}", a.getSetting)
				r.Put("/{key}", a.putSetting)
				r.Delete("/{key}", a.deleteSetting)
			})

			r.Get("/audit", a.listAudit)
		})
	})

	return r
}
