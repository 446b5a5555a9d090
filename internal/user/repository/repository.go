package repository

import (
	"context"
	"time"

	"strategypilot/backend/internal/user/domain"
)

// Repository defines persistence for user profiles.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListByOrg(ctx context.Context, orgID string) ([]*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	UpdateName(ctx context.Context, id, name string) error
	StampLastLogin(ctx context.Context, id string, at time.Time) error
}
