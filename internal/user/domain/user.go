package domain

import (
	"errors"
	"time"
)

// User is a profile row. Credentials live on the linked identity; a user row
// may legitimately not exist yet for a freshly registered identity.
type User struct {
	ID                      string
	Email                   string
	Name                    string
	Status                  UserStatus
	PasswordPolicyCompliant bool
	LastLoginAt             *time.Time // nil until first sign-in
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// Validate validates the user for persistence. Returns an error describing
// the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}
