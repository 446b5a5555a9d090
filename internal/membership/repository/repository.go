package repository

import (
	"context"

	"strategypilot/backend/internal/membership/domain"
	"strategypilot/backend/internal/platform/roles"
)

// Repository defines persistence for memberships.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Membership, error)
	GetByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Membership, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error)
	Create(ctx context.Context, m *domain.Membership) error
	UpdateRole(ctx context.Context, userID, orgID string, role roles.Role) error
	UpdateTeam(ctx context.Context, userID, orgID string, teamID *string) error
	DeleteByUserAndOrg(ctx context.Context, userID, orgID string) error
	CountByOrg(ctx context.Context, orgID string) (int64, error)
}
