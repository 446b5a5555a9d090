package service

import (
	"context"
	"errors"

	"strategypilot/backend/internal/audit/domain"
	auditrepo "strategypilot/backend/internal/audit/repository"
	"strategypilot/backend/internal/platform/roles"
)

// Sentinel errors for the audit service.
var (
	ErrNotAllowed = errors.New("caller may not read audit logs")
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Service serves the audit trail. Support staff read across every org;
// org admins read their own org only.
type Service struct {
	repo auditrepo.Repository
}

func NewService(repo auditrepo.Repository) *Service {
	return &Service{repo: repo}
}

// List returns audit logs visible to the caller. Support may pass any orgID,
// or an empty one for the cross-org view. Org admins are pinned to their own
// org regardless of the requested filter.
func (s *Service) List(ctx context.Context, callerOrgID string, callerRole roles.Role, orgID string, limit, offset int32) ([]*domain.AuditLog, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	if callerRole == roles.RoleSupport {
		if orgID == "" {
			return s.repo.ListAll(ctx, limit, offset)
		}
		return s.repo.ListByOrg(ctx, orgID, limit, offset)
	}
	if !roles.CanManageOrganization(callerRole) {
		return nil, ErrNotAllowed
	}
	return s.repo.ListByOrg(ctx, callerOrgID, limit, offset)
}
