package repository

import (
	"context"
	"time"

	"strategypilot/backend/internal/invitation/domain"
)

// Repository defines persistence for invitations.
type Repository interface {
	// GetPendingByToken returns the invitation for token only when it has
	// not been accepted; nil otherwise. Expiry is checked by the caller so
	// it can report "expired" distinctly from "not found".
	GetPendingByToken(ctx context.Context, token string) (*domain.Invitation, error)
	ListPendingByOrg(ctx context.Context, orgID string) ([]*domain.Invitation, error)
	Create(ctx context.Context, i *domain.Invitation) error
	// MarkAccepted stamps accepted_at for id only when still unaccepted.
	// Returns false when the invitation was already consumed.
	MarkAccepted(ctx context.Context, id string, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
}
