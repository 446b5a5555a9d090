package repository

import (
	"context"

	"strategypilot/backend/internal/organization/domain"
)

// Repository defines persistence for organizations.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Org, error)
	GetByDomain(ctx context.Context, emailDomain string) (*domain.Org, error)
	List(ctx context.Context) ([]*domain.Org, error)
	// Create persists the org. Returns ErrDomainTaken when another org
	// already owns the domain, so callers can refetch and join instead.
	Create(ctx context.Context, o *domain.Org) error
	UpdateName(ctx context.Context, id, name string) error
}
