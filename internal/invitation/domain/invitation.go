package domain

import (
	"time"

	"strategypilot/backend/internal/platform/roles"
)

// TTL is how long an invitation stays valid after creation.
const TTL = 7 * 24 * time.Hour

// Invitation is a single-use, time-boxed invite to join an organization.
// AcceptedAt is nil until accepted; lookups for acceptance filter on it so a
// token can never be consumed twice.
type Invitation struct {
	ID         string
	OrgID      string
	TeamID     *string // nil when not tied to a team
	Email      string
	Role       roles.Role
	InvitedBy  string
	Token      string
	ExpiresAt  time.Time
	AcceptedAt *time.Time
	CreatedAt  time.Time
}

// Expired reports whether the invitation has expired at now.
func (i *Invitation) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}
