// internal/httpapi/settings.go
//
// Per-tenant settings and the audit trail.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx/types"

	"github.com/keelhq/tenantcore/internal/apperr"
	"github.com/keelhq/tenantcore/internal/audit"
	"github.com/keelhq/tenantcore/internal/core"
	"github.com/keelhq/tenantcore/internal/membership"
	"github.com/keelhq/tenantcore/internal/settings"
)

type settingResponse struct {
	Key       string         `json:"key"`
	Value     types.JSONText `json:"value"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func toSettingResponse(st *settings.Setting) settingResponse {
	return settingResponse{Key: st.Key, Value: st.Value, UpdatedAt: st.UpdatedAt}
}

func (a *API) listSettings(w http.ResponseWriter, r *http.Request) {
	if err := core.RequirePermission(r.Context(), membership.PermSettingsRead); err != nil {
		writeError(w, err)
		return
	}
	b := core.FromContext(r.Context())
	rows, err := a.svc.ListSettings(r.Context(), b.Tenant.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]settingResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toSettingResponse(&rows[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": out})
}

func (a *API) getSetting(w http.ResponseWriter, r *http.Request) {
	if err := core.RequirePermission(r.Context(), membership.PermSettingsRead); err != nil {
		writeError(w, err)
		return
	}
	b := core.FromContext(r.Context())
	st, err := a.svc.GetSetting(r.Context(), b.Tenant.ID, chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingResponse(st))
}

func (a *API) putSetting(w http.ResponseWriter, r *http.Request) {
	if err := core.RequirePermission(r.Context(), membership.PermSettingsWrite); err != nil {
		writeError(w, err)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil || len(body) == 0 {
		writeError(w, apperr.Invalid("invalid setting value", map[string]string{"value": "JSON body required"}))
		return
	}
	if !json.Valid(body) {
		writeError(w, apperr.Invalid("invalid setting value", map[string]string{"value": "must be valid JSON"}))
		return
	}
	value := types.JSONText(body)
	b := core.FromContext(r.Context())
	st, err := a.svc.PutSetting(r.Context(), actor(b), b.Tenant.ID, chi.URLParam(r, "key"), value)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingResponse(st))
}

func (a *API) deleteSetting(w http.ResponseWriter, r *http.Request) {
	if err := core.RequirePermission(r.Context(), membership.PermSettingsWrite); err != nil {
		writeError(w, err)
		return
	}
	b := core.FromContext(r.Context())
	if err := a.svc.DeleteSetting(r.Context(), actor(b), b.Tenant.ID, chi.URLParam(r, "key")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type auditEntryResponse struct {
	ID           string         `json:"id"`
	ActorID      string         `json:"actor_id,omitempty"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Details      types.JSONText `json:"details"`
	IP           string         `json:"ip,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func toAuditResponse(e *audit.Entry) auditEntryResponse {
	out := auditEntryResponse{
		ID:           e.ID.String(),
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Details:      e.Details,
		IP:           e.IP,
		CreatedAt:    e.CreatedAt,
	}
	if e.ActorID != nil {
		out.ActorID = e.ActorID.String()
	}
	return out
}

func (a *API) listAudit(w http.ResponseWriter, r *http.Request) {
	if err := core.RequirePermission(r.Context(), membership.PermAuditRead); err != nil {
		writeError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	b := core.FromContext(r.Context())
	rows, err := a.svc.ListAuditLog(r.Context(), b.Tenant.ID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]auditEntryResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toAuditResponse(&rows[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}
