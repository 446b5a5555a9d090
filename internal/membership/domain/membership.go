package domain

import (
	"time"

	"strategypilot/backend/internal/platform/roles"
)

// Membership links a user to an organization with a role and an optional
// team. A user may hold memberships in several organizations.
type Membership struct {
	ID        string
	UserID    string
	OrgID     string
	TeamID    *string // nil when not attached to a team
	Role      roles.Role
	CreatedAt time.Time
}

// ResolvePrimary picks the membership used for authorization when a user has
// several: the one with role OrgAdmin if present, else the first. Returns
// nil for an empty list. This rule determines effective permissions and must
// not be reimplemented elsewhere.
func ResolvePrimary(ms []*Membership) *Membership {
	if len(ms) == 0 {
		return nil
	}
	for _, m := range ms {
		if m.Role == roles.RoleOrgAdmin {
			return m
		}
	}
	return ms[0]
}
