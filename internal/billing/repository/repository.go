package repository

import (
	"context"

	"strategypilot/backend/internal/billing/domain"
)

// Repository defines persistence for subscriptions.
type Repository interface {
	GetByOrg(ctx context.Context, orgID string) (*domain.Subscription, error)
	// Upsert creates or replaces the org's subscription row.
	Upsert(ctx context.Context, s *domain.Subscription) error
}
