// internal/httpapi/invitations.go
//
// Invitation handlers.
//
// Notes
// -----
// • Listing sweeps overdue pending invitations first, so clients never
//   see a "pending" row that is already past its window.
// • Accept is open to any authenticated member-to-be: the permission
//   gate is the invitation itself, not a role.  The response never
//   echoes the secret token back after creation.
package httpapi

import (
	"net/http"
	"time"

	"github.com/keelhq/tenantcore/internal/apperr"
	"github.com/keelhq/tenantcore/internal/core"
	"github.com/keelhq/tenantcore/internal/identity"
	"github.com/keelhq/tenantcore/internal/invitation"
	"github.com/keelhq/tenantcore/internal/membership"
	"github.com/keelhq/tenantcore/internal/service"
)

type invitationResponse struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	Token      string     `json:"token,omitempty"` // only on creation
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

func toInvitationResponse(inv *invitation.Invitation, withToken bool) invitationResponse {
	out := invitationResponse{
		ID:         inv.ID.String(),
		Email:      inv.Email,
		Role:       string(inv.Role),
		Status:     string(inv.Status),
		ExpiresAt:  inv.ExpiresAt,
		AcceptedAt: inv.AcceptedAt,
	}
	if withToken {
		out.Token = inv.Token
	}
	return out
}

func (a *API) listInvitations(w http.ResponseWriter, r *http.Request) {
	if err := core.RequirePermission(r.Context(), membership.PermInvitesManage); err != nil {
		writeError(w, err)
		return
	}
	b := core.FromContext(r.Context())
	if _, err := a.svc.ExpireInvitations(r.Context(), b.Tenant.ID); err != nil {
		writeError(w, err)
		return
	}
	rows, err := a.svc.ListInvitations(r.Context(), b.Tenant.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]invitationResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toInvitationResponse(&rows[i], false))
	}
	writeJSON(w, http.StatusOK, map[string]any{"invitations": out})
}

type createInvitationRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=owner admin member viewer"`
}

func (a *API) createInvitation(w http.ResponseWriter, r *http.Request) {
	if err := core.RequirePermission(r.Context(), membership.PermInvitesManage); err != nil {
		writeError(w, err)
		return
	}
	var req createInvitationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	b := core.FromContext(r.Context())
	inv, err := a.svc.CreateInvitation(r.Context(), actor(b), b.Tenant.ID, service.CreateInvitationInput{
		Email: req.Email,
		Role:  membership.Role(req.Role),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInvitationResponse(inv, true))
}

func (a *API) acceptInvitation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	// The accepting caller is usually not a member yet; the binder
	// leaves Membership nil for them and the identity carries who
	// they are.
	ident, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, apperr.New(apperr.ContextMissing, "invitation accept reached without an authenticated identity"))
		return
	}
	b := core.FromContext(r.Context())
	m, err := a.svc.AcceptInvitation(r.Context(), actor(b), b.Tenant.ID, id, ident.Subject)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberResponse(m))
}

func (a *API) revokeInvitation(w http.ResponseWriter, r *http.Request) {
	if err := core.RequirePermission(r.Context(), membership.PermInvitesManage); err != nil {
		writeError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	b := core.FromContext(r.Context())
	inv, err := a.svc.RevokeInvitation(r.Context(), actor(b), b.Tenant.ID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvitationResponse(inv, false))
}
