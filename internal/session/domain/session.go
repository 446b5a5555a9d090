package domain

import "time"

// Session is a server-side login session. The refresh jti and token hash
// bind the currently valid refresh token to the row for rotation and reuse
// detection.
type Session struct {
	ID               string
	UserID           string
	OrgID            string
	ExpiresAt        time.Time
	RevokedAt        *time.Time // nil when not revoked
	LastSeenAt       *time.Time
	IPAddress        string
	RefreshJti       string
	RefreshTokenHash string // SHA-256 of the current refresh token
	CreatedAt        time.Time
}

// Active reports whether the session is neither revoked nor expired at now.
func (s *Session) Active(now time.Time) bool {
	return s != nil && s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
