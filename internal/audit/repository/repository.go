package repository

import (
	"context"

	"strategypilot/backend/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*domain.AuditLog, error)
	ListAll(ctx context.Context, limit, offset int32) ([]*domain.AuditLog, error)
}
