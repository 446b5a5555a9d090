// Package handler exposes the impersonation endpoints. Starting an overlay
// mints an access token for the target identity with the support user
// recorded as actor.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"strategypilot/backend/internal/impersonation/service"
	"strategypilot/backend/internal/platform/rbac"
	"strategypilot/backend/internal/security"
	"strategypilot/backend/internal/server/respond"
	"strategypilot/backend/internal/telemetry"
	teldomain "strategypilot/backend/internal/telemetry/domain"
)

// ImpersonationAPI is the slice of the impersonation service the handler needs.
type ImpersonationAPI interface {
	Start(ctx context.Context, actorUserID, targetUserID string) (*service.StartResult, error)
	Stop(ctx context.Context, token string) error
}

// TokenIssuer mints access tokens.
type TokenIssuer interface {
	IssueAccess(id security.AccessIdentity) (token string, jti string, expiresAt time.Time, err error)
}

type Handler struct {
	imp     ImpersonationAPI
	tokens  TokenIssuer
	emitter telemetry.EventEmitter
}

func New(imp ImpersonationAPI, tokens TokenIssuer, emitter telemetry.EventEmitter) *Handler {
	return &Handler{imp: imp, tokens: tokens, emitter: emitter}
}

// Start handles POST /api/v1/impersonation.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if !respond.Decode(w, r, &req) {
		return
	}
	id, _ := rbac.IdentityFrom(r.Context())
	if id.ActorID != "" {
		respond.Error(w, http.StatusConflict, "already impersonating")
		return
	}
	res, err := h.imp.Start(r.Context(), id.UserID, req.UserID)
	if err != nil {
		writeImpersonationError(w, err)
		return
	}
	access, _, expiresAt, err := h.tokens.IssueAccess(security.AccessIdentity{
		SessionID: id.SessionID,
		UserID:    res.TargetUser.ID,
		OrgID:     res.TargetOrg,
		Role:      string(res.TargetRole),
		ActorID:   id.UserID,
	})
	if err != nil {
		// The grant is useless without a token; undo it best-effort.
		_ = h.imp.Stop(r.Context(), res.Grant.Token)
		respond.Error(w, http.StatusInternalServerError, "could not issue impersonation token")
		return
	}
	telemetry.EmitAsync(h.emitter, teldomain.Event{
		OrgID:     res.TargetOrg,
		UserID:    res.TargetUser.ID,
		ActorID:   id.UserID,
		SessionID: id.SessionID,
		EventType: teldomain.EventImpersonationStart,
		Source:    "api",
	})
	respond.JSON(w, http.StatusCreated, map[string]any{
		"grantToken":     res.Grant.Token,
		"grantExpiresAt": res.Grant.ExpiresAt,
		"accessToken":    access,
		"expiresAt":      expiresAt,
		"orgId":          res.TargetOrg,
		"role":           string(res.TargetRole),
		"targetUser": map[string]string{
			"id":    res.TargetUser.ID,
			"email": res.TargetUser.Email,
			"name":  res.TargetUser.Name,
		},
	})
}

// Stop handles DELETE /api/v1/impersonation. Idempotent: a missing or
// already-expired grant still answers 204.
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GrantToken string `json:"grantToken"`
	}
	if !respond.Decode(w, r, &req) {
		return
	}
	if err := h.imp.Stop(r.Context(), req.GrantToken); err != nil {
		respond.Error(w, http.StatusInternalServerError, "could not stop impersonation")
		return
	}
	if id, ok := rbac.IdentityFrom(r.Context()); ok {
		telemetry.EmitAsync(h.emitter, teldomain.Event{
			OrgID:     id.OrgID,
			UserID:    id.UserID,
			ActorID:   id.ActorID,
			SessionID: id.SessionID,
			EventType: teldomain.EventImpersonationStop,
			Source:    "api",
		})
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

func writeImpersonationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotSupport):
		respond.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrTargetNotFound):
		respond.Error(w, http.StatusNotFound, err.Error())
	default:
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}
