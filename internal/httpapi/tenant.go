// internal/httpapi/tenant.go
//
// Tenant handlers.
//
// Notes
// -----
// • POST /tenants runs before any tenant binding exists; the caller's
//   identity becomes the owner membership.
// • PATCH /tenant multiplexes rename, settings replacement, and status
//   changes; status transitions need their dedicated permissions.
package httpapi

import (
	"net/http"

	"github.com/jmoiron/sqlx/types"

	"github.com/keelhq/tenantcore/internal/apperr"
	"github.com/keelhq/tenantcore/internal/core"
	"github.com/keelhq/tenantcore/internal/identity"
	"github.com/keelhq/tenantcore/internal/membership"
	"github.com/keelhq/tenantcore/internal/requestinfo"
	"github.com/keelhq/tenantcore/internal/service"
	"github.com/keelhq/tenantcore/internal/tenant"
)

type createTenantRequest struct {
	Slug string `json:"slug"`
	Name string `json:"name" validate:"required,max=200"`
}

type tenantResponse struct {
	ID       string         `json:"id"`
	Slug     string         `json:"slug"`
	Name     string         `json:"name"`
	Status   string         `json:"status"`
	Settings types.JSONText `json:"settings"`
}

func toTenantResponse(t *tenant.Tenant) tenantResponse {
	return tenantResponse{
		ID:       t.ID.String(),
		Slug:     t.Slug,
		Name:     t.Name,
		Status:   string(t.Status),
		Settings: t.Settings,
	}
}

func (a *API) createTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.ContextMissing, "tenant creation reached without an authenticated identity"))
		return
	}

	var req createTenantRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	act := service.Actor{}
	if info := requestinfo.FromContext(r.Context()); info != nil {
		act.IP = info.IPString()
		act.UserAgent = info.UA.Raw
	}

	t, owner, err := a.svc.CreateTenant(r.Context(), act, service.CreateTenantInput{
		Slug:            req.Slug,
		Name:            req.Name,
		OwnerExternalID: id.Subject,
		OwnerEmail:      id.Email,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"tenant": toTenantResponse(t),
		"owner":  toMemberResponse(owner),
	})
}

func (a *API) getTenant(w http.ResponseWriter, r *http.Request) {
	if err := core.RequirePermission(r.Context(), membership.PermTenantRead); err != nil {
		writeError(w, err)
		return
	}
	b := core.FromContext(r.Context())
	writeJSON(w, http.StatusOK, toTenantResponse(b.Tenant))
}

type updateTenantRequest struct {
	Name     string         `json:"name"`
	Settings types.JSONText `json:"settings"`
	Status   string         `json:"status" validate:"omitempty,oneof=active suspended"`
}

func (a *API) updateTenant(w http.ResponseWriter, r *http.Request) {
	var req updateTenantRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	b := core.FromContext(r.Context())
	act := actor(b)

	// Status change is its own operation with its own permission.
	if req.Status != "" {
		if err := core.RequirePermission(r.Context(), membership.PermTenantUpdate); err != nil {
			writeError(w, err)
			return
		}
		var (
			t   *tenant.Tenant
			err error
		)
		if req.Status == string(tenant.StatusActive) {
			t, err = a.svc.ActivateTenant(r.Context(), act, b.Tenant.ID)
		} else {
			t, err = a.svc.SuspendTenant(r.Context(), act, b.Tenant.ID)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTenantResponse(t))
		return
	}

	if err := core.RequirePermission(r.Context(), membership.PermTenantUpdate); err != nil {
		writeError(w, err)
		return
	}
	name := req.Name
	if name == "" {
		name = b.Tenant.Name
	}
	t, err := a.svc.UpdateTenant(r.Context(), act, b.Tenant.ID, name, req.Settings)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTenantResponse(t))
}

func (a *API) deleteTenant(w http.ResponseWriter, r *http.Request) {
	if err := core.RequirePermission(r.Context(), membership.PermTenantDelete); err != nil {
		writeError(w, err)
		return
	}
	b := core.FromContext(r.Context())
	if err := a.svc.DeleteTenant(r.Context(), b.Tenant.ID); err != nil {
		writeError(w, err)
		return
	}
	a.cache.Invalidate(b.Tenant.Slug)
	writeJSON(w, http.StatusNoContent, nil)
}
