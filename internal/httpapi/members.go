// internal/httpapi/members.go
//
// Membership handlers.  Reads need members.read; mutations need
// members.manage.  The owner-seat rules themselves live in the service
// layer and come back as 409s.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/keelhq/tenantcore/internal/apperr"
	"github.com/keelhq/tenantcore/internal/core"
	"github.com/keelhq/tenantcore/internal/membership"
	"github.com/keelhq/tenantcore/internal/service"
)

type memberResponse struct {
	ID          string     `json:"id"`
	ExternalID  string     `json:"external_id"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func toMemberResponse(m *membership.Membership) memberResponse {
	return memberResponse{
		ID:          m.ID.String(),
		ExternalID:  m.ExternalID,
		Email:       m.Email,
		Role:        string(m.Role),
		Status:      string(m.Status),
		LastLoginAt: m.LastLoginAt,
	}
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperr.Invalid("invalid id", map[string]string{"id": "must be a UUID"})
	}
	return id, nil
}

// recordLogin stamps last_login_at for the bound caller.  Clients call
// it once per session, not per request.
func (a *API) recordLogin(w http.ResponseWriter, r *http.Request) {
	b := core.FromContext(r.Context())
	if b == nil || b.Membership == nil {
		writeError(w, apperr.New(apperr.MembershipNotFound, "caller is not a member of this tenant"))
		return
	}
	if err := a.svc.RecordLogin(r.Context(), b.Tenant.ID, b.Membership.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) listMembers(w http.ResponseWriter, r *http.Request) {
	if err := core.RequirePermission(r.Context(), membership.PermMembersRead); err != nil {
		writeError(w, err)
		return
	}
	b := core.FromContext(r.Context())
	rows, err := a.svc.ListMemberships(r.Context(), b.Tenant.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]memberResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toMemberResponse(&rows[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": out})
}

type createMemberRequest struct {
	ExternalID string `json:"external_id" validate:"required,max=255"`
	Email      string `json:"email" validate:"required,email"`
	Role       string `json:"role" validate:"required,oneof=owner admin member viewer"`
}

func (a *API) createMember(w http.ResponseWriter, r *http.Request) {
	if err := core.RequirePermission(r.Context(), membership.PermMembersManage); err != nil {
		writeError(w, err)
		return
	}
	var req createMemberRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	b := core.FromContext(r.Context())
	m, err := a.svc.CreateMembership(r.Context(), actor(b), b.Tenant.ID, service.CreateMembershipInput{
		ExternalID: req.ExternalID,
		Email:      req.Email,
		Role:       membership.Role(req.Role),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberResponse(m))
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=owner admin member viewer"`
}

func (a *API) updateMemberRole(w http.ResponseWriter, r *http.Request) {
	if err := core.RequirePermission(r.Context(), membership.PermMembersManage); err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateRoleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	b := core.FromContext(r.Context())
	m, err := a.svc.UpdateMembershipRole(r.Context(), actor(b), b.Tenant.ID, id, membership.Role(req.Role))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(m))
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active suspended cancelled"`
}

func (a *API) updateMemberStatus(w http.ResponseWriter, r *http.Request) {
	if err := core.RequirePermission(r.Context(), membership.PermMembersManage); err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	b := core.FromContext(r.Context())
	m, err := a.svc.UpdateMembershipStatus(r.Context(), actor(b), b.Tenant.ID, id, membership.Status(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(m))
}

func (a *API) deleteMember(w http.ResponseWriter, r *http.Request) {
	if err := core.RequirePermission(r.Context(), membership.PermMembersManage); err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	b := core.FromContext(r.Context())
	if err := a.svc.DeleteMembership(r.Context(), actor(b), b.Tenant.ID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
