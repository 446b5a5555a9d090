// Package handler exposes invitation endpoints: issuing, lookup, and the
// public acceptance flow.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"strategypilot/backend/internal/invitation/domain"
	"strategypilot/backend/internal/invitation/service"
	"strategypilot/backend/internal/platform/rbac"
	"strategypilot/backend/internal/platform/roles"
	"strategypilot/backend/internal/server/respond"
	"strategypilot/backend/internal/telemetry"
	teldomain "strategypilot/backend/internal/telemetry/domain"
)

// InvitationAPI is the slice of the invitation service the handler needs.
type InvitationAPI interface {
	Create(ctx context.Context, actorRole roles.Role, orgID, email string, role roles.Role, teamID, invitedBy string) (*domain.Invitation, error)
	Lookup(ctx context.Context, token string) (*domain.Invitation, error)
	Accept(ctx context.Context, token, password, name string) (*service.AcceptResult, error)
	ListPending(ctx context.Context, actorRole roles.Role, orgID string) ([]*domain.Invitation, error)
	Revoke(ctx context.Context, actorRole roles.Role, orgID, invitationID string) error
}

type Handler struct {
	invitations InvitationAPI
	emitter     telemetry.EventEmitter
	baseURL     string
}

// New returns an invitation Handler. baseURL is the public URL invite links
// are built on.
func New(invitations InvitationAPI, emitter telemetry.EventEmitter, baseURL string) *Handler {
	return &Handler{invitations: invitations, emitter: emitter, baseURL: baseURL}
}

type invitationResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	TeamID    string    `json:"teamId,omitempty"`
	Link      string    `json:"link,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *Handler) toResponse(inv *domain.Invitation, includeLink bool) invitationResponse {
	out := invitationResponse{
		ID:        inv.ID,
		Email:     inv.Email,
		Role:      string(inv.Role),
		ExpiresAt: inv.ExpiresAt,
		CreatedAt: inv.CreatedAt,
	}
	if inv.TeamID != nil {
		out.TeamID = *inv.TeamID
	}
	if includeLink && h.baseURL != "" {
		out.Link = h.baseURL + "/invite/" + inv.Token
	}
	return out
}

// Create handles POST /api/v1/invitations.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email  string `json:"email"`
		Role   string `json:"role"`
		TeamID string `json:"teamId"`
	}
	if !respond.Decode(w, r, &req) {
		return
	}
	id, _ := rbac.IdentityFrom(r.Context())
	inv, err := h.invitations.Create(r.Context(), roles.Role(id.Role), id.OrgID, req.Email, roles.Role(req.Role), req.TeamID, id.UserID)
	if err != nil {
		writeInvitationError(w, err)
		return
	}
	telemetry.EmitAsync(h.emitter, teldomain.Event{
		OrgID:     id.OrgID,
		UserID:    id.UserID,
		EventType: teldomain.EventInviteSent,
		Source:    "api",
		Metadata:  map[string]string{"role": string(inv.Role)},
	})
	respond.JSON(w, http.StatusCreated, h.toResponse(inv, true))
}

// List handles GET /api/v1/invitations.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := rbac.IdentityFrom(r.Context())
	pending, err := h.invitations.ListPending(r.Context(), roles.Role(id.Role), id.OrgID)
	if err != nil {
		writeInvitationError(w, err)
		return
	}
	resp := make([]invitationResponse, 0, len(pending))
	for _, inv := range pending {
		resp = append(resp, h.toResponse(inv, false))
	}
	respond.JSON(w, http.StatusOK, resp)
}

// Revoke handles DELETE /api/v1/invitations/{invitationID}.
func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	id, _ := rbac.IdentityFrom(r.Context())
	if err := h.invitations.Revoke(r.Context(), roles.Role(id.Role), id.OrgID, chi.URLParam(r, "invitationID")); err != nil {
		writeInvitationError(w, err)
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

// Lookup handles GET /api/v1/invitations/lookup. Public: the invitee has a
// token but no account yet.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	inv, err := h.invitations.Lookup(r.Context(), token)
	if err != nil {
		writeInvitationError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, h.toResponse(inv, false))
}

// Accept handles POST /api/v1/invitations/accept. Public.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if !respond.Decode(w, r, &req) {
		return
	}
	res, err := h.invitations.Accept(r.Context(), req.Token, req.Password, req.Name)
	if err != nil {
		writeInvitationError(w, err)
		return
	}
	telemetry.EmitAsync(h.emitter, teldomain.Event{
		OrgID:     res.OrgID,
		UserID:    res.UserID,
		EventType: teldomain.EventInviteAccepted,
		Source:    "api",
	})
	respond.JSON(w, http.StatusCreated, map[string]string{
		"userId": res.UserID,
		"orgId":  res.OrgID,
		"role":   string(res.Role),
	})
}

func writeInvitationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotAllowed):
		respond.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvitationNotFound):
		respond.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvitationExpired),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrEmailRequired),
		errors.Is(err, service.ErrTeamNotInOrg):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvitationConsumed),
		errors.Is(err, service.ErrUserAlreadyExists):
		respond.Error(w, http.StatusConflict, err.Error())
	default:
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}
