package security

import "github.com/google/uuid"

// NewOpaqueToken returns a random opaque token for invitation links and
// impersonation grants. UUID-class: unguessable enough for a single-use,
// short-lived artifact, and safe to embed in a URL.
func NewOpaqueToken() string {
	return uuid.New().String()
}
