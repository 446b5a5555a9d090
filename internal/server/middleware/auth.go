// Package middleware holds the HTTP middleware chain: bearer-token
// authentication, audit recording, and client IP extraction.
package middleware

import (
	"net/http"
	"strings"

	"strategypilot/backend/internal/platform/rbac"
	"strategypilot/backend/internal/security"
	"strategypilot/backend/internal/server/respond"
)

// AccessValidator validates an access token and returns the identity it
// carries.
type AccessValidator interface {
	ValidateAccess(token string) (security.AccessIdentity, error)
}

// BearerAuth returns middleware that validates the Authorization bearer
// token and stores the identity in the request context. Paths in public are
// passed through without a token; a bearer token on a public path is still
// validated when present so handlers can personalize.
func BearerAuth(tokens AccessValidator, public map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				if public[r.URL.Path] {
					next.ServeHTTP(w, r)
					return
				}
				respond.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}
			id, err := tokens.ValidateAccess(raw)
			if err != nil {
				if public[r.URL.Path] {
					next.ServeHTTP(w, r)
					return
				}
				respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(rbac.WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
