package repository

import (
	"context"
	"time"

	"strategypilot/backend/internal/identity/domain"
)

// Repository defines persistence for identities (credential records).
type Repository interface {
	GetByUserAndProvider(ctx context.Context, userID string, provider domain.IdentityProvider) (*domain.Identity, error)
	Create(ctx context.Context, i *domain.Identity) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	Confirm(ctx context.Context, id string, at time.Time) error
}
