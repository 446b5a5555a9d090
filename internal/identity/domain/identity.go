package domain

import "time"

// Identity holds a user's credential record. Local identities carry a bcrypt
// password hash; ConfirmedAt is nil until the email address is confirmed.
type Identity struct {
	ID           string
	UserID       string
	Provider     IdentityProvider
	ProviderID   string // the email address for local identities
	PasswordHash string
	ConfirmedAt  *time.Time
	CreatedAt    time.Time
}

type IdentityProvider string

const (
	IdentityProviderLocal IdentityProvider = "local"
)

// Confirmed reports whether the identity's email has been confirmed.
func (i *Identity) Confirmed() bool {
	return i != nil && i.ConfirmedAt != nil
}
