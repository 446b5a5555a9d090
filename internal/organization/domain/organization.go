package domain

import (
	"errors"
	"strings"
	"time"
)

// Org represents an organization/tenant. Domain is the email domain of the
// first registrant, lowercased; it is computed once and immutable, and at
// most one organization exists per domain.
type Org struct {
	ID        string
	Name      string
	Domain    string
	Status    OrgStatus
	CreatedAt time.Time
}

type OrgStatus string

const (
	OrgStatusActive    OrgStatus = "active"
	OrgStatusSuspended OrgStatus = "suspended"
)

// Validate validates the organization for persistence. Returns an error
// describing the first validation failure.
func (o *Org) Validate() error {
	if o.Name == "" {
		return errors.New("name is required")
	}
	if o.Domain == "" {
		return errors.New("domain is required")
	}
	if o.Status == "" {
		o.Status = OrgStatusActive
	}
	return nil
}

// DomainFromEmail returns the lowercased domain part of email, or "" when
// email has no domain part.
func DomainFromEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
