package domain

import (
	"errors"
	"time"
)

// UnassignedName is the distinguished team every organization gets at
// creation. It is the default destination for new members and the fallback
// when another team is deleted. It cannot itself be deleted or renamed.
const UnassignedName = "Unassigned"

// Team is a named group of members within one organization.
type Team struct {
	ID        string
	OrgID     string
	Name      string
	CreatedAt time.Time
}

// Validate validates the team for persistence.
func (t *Team) Validate() error {
	if t.OrgID == "" {
		return errors.New("organization id is required")
	}
	if t.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// IsUnassigned reports whether this is the organization's fallback team.
func (t *Team) IsUnassigned() bool {
	return t.Name == UnassignedName
}
