package domain

import "time"

// PasswordResetTTL is how long a reset token stays valid after issuance.
const PasswordResetTTL = time.Hour

// PasswordReset is a single-use, time-limited token letting a user set a new
// password. UsedAt is nil until consumed.
type PasswordReset struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry at now.
func (p *PasswordReset) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
