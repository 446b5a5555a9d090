// Package handler exposes team management endpoints.
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
	"strategypilot/backend/internal/team/domain"
	"strategypilot/backend/internal/team/service"
)

// TeamAPI is the slice of the team service the handler needs.
type TeamAPI interface {
	List(ctx context.Context, orgID string) ([]*domain.Team, error)
	Create(ctx context.Context, actorRole roles.Role, orgID, name string) (*domain.Team, error)
	Rename(ctx context.Context, actorRole roles.Role, orgID, teamID, name string) error
	Delete(ctx context.Context, actorRole roles.Role, orgID, teamID string) error
}

type Handler struct {
	teams TeamAPI
}

func New(teams TeamAPI) *Handler {
	return &Handler{teams: teams}
}

type teamResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// List handles GET /api/v1/teams.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := rbac.IdentityFrom(r.Context())
	teams, err := h.teams.List(r.Context(), id.OrgID)
	if err != nil {
		writeTeamError(w, err)
		return
	}
	resp := make([]teamResponse, 0, len(teams))
	for _, t := range teams {
		resp = append(resp, teamResponse{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt})
	}
	respond.JSON(w, http.StatusOK, resp)
}

// Create handles POST /api/v1/teams.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !respond.Decode(w, r, &req) {
		return
	}
	id, _ := rbac.IdentityFrom(r.Context())
	team, err := h.teams.Create(r.Context(), roles.Role(id.Role), id.OrgID, req.Name)
	if err != nil {
		writeTeamError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, teamResponse{ID: team.ID, Name: team.Name, CreatedAt: team.CreatedAt})
}

// Rename handles PATCH /api/v1/teams/{teamID}.
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !respond.Decode(w, r, &req) {
		return
	}
	id, _ := rbac.IdentityFrom(r.Context())
	if err := h.teams.Rename(r.Context(), roles.Role(id.Role), id.OrgID, chi.URLParam(r, "teamID"), req.Name); err != nil {
		writeTeamError(w, err)
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

// Delete handles DELETE /api/v1/teams/{teamID}. Members move to the
// Unassigned team.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := rbac.IdentityFrom(r.Context())
	if err := h.teams.Delete(r.Context(), roles.Role(id.Role), id.OrgID, chi.URLParam(r, "teamID")); err != nil {
		writeTeamError(w, err)
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

func writeTeamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotAllowed):
		respond.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrTeamNotFound):
		respond.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUnassignedLocked):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrDuplicateTeamName):
		respond.Error(w, http.StatusConflict, err.Error())
	default:
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}
