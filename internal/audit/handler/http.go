// Package handler serves the audit trail listing.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	auditdomain "strategypilot/backend/internal/audit/domain"
	"strategypilot/backend/internal/audit/service"
	"strategypilot/backend/internal/platform/rbac"
	"strategypilot/backend/internal/platform/roles"
	"strategypilot/backend/internal/server/respond"
)

// AuditAPI is the slice of the audit service the handler needs.
type AuditAPI interface {
	List(ctx context.Context, callerOrgID string, callerRole roles.Role, orgID string, limit, offset int32) ([]*auditdomain.AuditLog, error)
}

type Handler struct {
	audit AuditAPI
}

func New(audit AuditAPI) *Handler {
	return &Handler{audit: audit}
}

type auditLogResponse struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"orgId,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	ActorID   string    `json:"actorId,omitempty"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"createdAt"`
}

// List handles GET /api/v1/audit-logs. Query params: org (support only),
// limit, offset.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := rbac.IdentityFrom(r.Context())
	q := r.URL.Query()
	limit := parseInt32(q.Get("limit"))
	offset := parseInt32(q.Get("offset"))

	logs, err := h.audit.List(r.Context(), id.OrgID, roles.Role(id.Role), q.Get("org"), limit, offset)
	if err != nil {
		if errors.Is(err, service.ErrNotAllowed) {
			respond.Error(w, http.StatusForbidden, err.Error())
			return
		}
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	resp := make([]auditLogResponse, 0, len(logs))
	for _, a := range logs {
		resp = append(resp, auditLogResponse{
			ID:        a.ID,
			OrgID:     a.OrgID,
			UserID:    a.UserID,
			ActorID:   a.ActorID,
			Action:    a.Action,
			Resource:  a.Resource,
			IP:        a.IP,
			CreatedAt: a.CreatedAt,
		})
	}
	respond.JSON(w, http.StatusOK, resp)
}

func parseInt32(s string) int32 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0
	}
	return int32(n)
}
