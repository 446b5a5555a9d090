package repository

import (
	"context"

	"strategypilot/backend/internal/team/domain"
)

// Repository defines persistence for teams.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Team, error)
	GetByOrgAndName(ctx context.Context, orgID, name string) (*domain.Team, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.Team, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Team, error)
	Create(ctx context.Context, t *domain.Team) error
	Rename(ctx context.Context, id, name string) error
	// DeleteReassigning deletes the team and moves its memberships to
	// fallbackTeamID in one transaction.
	DeleteReassigning(ctx context.Context, id, fallbackTeamID string) error
}
