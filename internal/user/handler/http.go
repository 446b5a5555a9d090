// Package handler exposes user and profile management endpoints.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"strategypilot/backend/internal/platform/rbac"
	"strategypilot/backend/internal/platform/roles"
	"strategypilot/backend/internal/server/respond"
	"strategypilot/backend/internal/user/service"
)

// UserAPI is the slice of the user service the handler needs.
type UserAPI interface {
	ListOrgUsers(ctx context.Context, actorRole roles.Role, orgID string) ([]*service.OrgUser, error)
	UpdateRole(ctx context.Context, actorRole roles.Role, actorUserID, orgID, targetUserID string, role roles.Role) error
	AssignTeam(ctx context.Context, actorRole roles.Role, orgID, targetUserID, teamID string) error
	RemoveFromOrg(ctx context.Context, actorRole roles.Role, actorUserID, orgID, targetUserID string) error
	UpdateProfile(ctx context.Context, userID, name string) error
}

type Handler struct {
	users UserAPI
}

func New(users UserAPI) *Handler {
	return &Handler{users: users}
}

type orgUserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	TeamID      string     `json:"teamId,omitempty"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// List handles GET /api/v1/users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := rbac.IdentityFrom(r.Context())
	out, err := h.users.ListOrgUsers(r.Context(), roles.Role(id.Role), id.OrgID)
	if err != nil {
		writeUserError(w, err)
		return
	}
	resp := make([]orgUserResponse, 0, len(out))
	for _, ou := range out {
		item := orgUserResponse{
			ID:          ou.User.ID,
			Email:       ou.User.Email,
			Name:        ou.User.Name,
			Role:        string(ou.Membership.Role),
			Status:      string(ou.User.Status),
			LastLoginAt: ou.User.LastLoginAt,
		}
		if ou.Membership.TeamID != nil {
			item.TeamID = *ou.Membership.TeamID
		}
		resp = append(resp, item)
	}
	respond.JSON(w, http.StatusOK, resp)
}

// UpdateRole handles PATCH /api/v1/users/{userID}/role.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if !respond.Decode(w, r, &req) {
		return
	}
	id, _ := rbac.IdentityFrom(r.Context())
	err := h.users.UpdateRole(r.Context(), roles.Role(id.Role), id.UserID, id.OrgID, chi.URLParam(r, "userID"), roles.Role(req.Role))
	if err != nil {
		writeUserError(w, err)
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

// AssignTeam handles PATCH /api/v1/users/{userID}/team. An empty teamId
// detaches the user back to no team.
func (h *Handler) AssignTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TeamID string `json:"teamId"`
	}
	if !respond.Decode(w, r, &req) {
		return
	}
	id, _ := rbac.IdentityFrom(r.Context())
	err := h.users.AssignTeam(r.Context(), roles.Role(id.Role), id.OrgID, chi.URLParam(r, "userID"), req.TeamID)
	if err != nil {
		writeUserError(w, err)
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

// Remove handles DELETE /api/v1/users/{userID}.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	id, _ := rbac.IdentityFrom(r.Context())
	err := h.users.RemoveFromOrg(r.Context(), roles.Role(id.Role), id.UserID, id.OrgID, chi.URLParam(r, "userID"))
	if err != nil {
		writeUserError(w, err)
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

// Me handles GET /api/v1/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, _ := rbac.IdentityFrom(r.Context())
	body := map[string]any{
		"userId":        id.UserID,
		"orgId":         id.OrgID,
		"role":          id.Role,
		"impersonating": id.ActorID != "",
		"permissions":   roles.Permissions(roles.Role(id.Role)),
	}
	// Clients render a persistent banner while impersonating; every session
	// read carries the acting support user so the banner cannot be missed.
	if id.ActorID != "" {
		body["actorId"] = id.ActorID
	}
	respond.JSON(w, http.StatusOK, body)
}

// UpdateMe handles PATCH /api/v1/me.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !respond.Decode(w, r, &req) {
		return
	}
	id, _ := rbac.IdentityFrom(r.Context())
	if err := h.users.UpdateProfile(r.Context(), id.UserID, req.Name); err != nil {
		writeUserError(w, err)
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

func writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotAllowed):
		respond.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		respond.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrSelfDemotion),
		errors.Is(err, service.ErrCannotRemoveSelf),
		errors.Is(err, service.ErrTeamNotInOrg):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrLastOrgAdmin):
		respond.Error(w, http.StatusConflict, err.Error())
	default:
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}
