package repository

import (
	"context"
	"time"

	"strategypilot/backend/internal/impersonation/domain"
)

// Repository defines persistence for impersonation grants.
type Repository interface {
	// GetActiveByToken returns the grant for token only when it has not
	// expired as of now; nil otherwise.
	GetActiveByToken(ctx context.Context, token string, now time.Time) (*domain.Grant, error)
	Create(ctx context.Context, g *domain.Grant) error
	DeleteByToken(ctx context.Context, token string) error
	// DeleteBySupportUser removes every grant held by the support user.
	DeleteBySupportUser(ctx context.Context, supportUserID string) error
	// DeleteExpired removes grants past their expiry. Opportunistic cleanup.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
