package domain

import "time"

// TTL is the lifetime of an impersonation grant. Expiry is always
// CreatedAt + TTL, computed once at mint time.
const TTL = 5 * time.Minute

// Grant is a time-boxed authorization record letting a Support user act as
// another user without their credentials. It is an ephemeral join artifact:
// created when impersonation starts, deleted when it stops, and rejected on
// read once expired.
type Grant struct {
	ID            string
	SupportUserID string
	TargetUserID  string
	OrgID         string
	Token         string
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

// Expired reports whether the grant is past its expiry at now.
func (g *Grant) Expired(now time.Time) bool {
	return !now.Before(g.ExpiresAt)
}
