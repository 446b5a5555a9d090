package rbac

import (
	"encoding/json"
	"net/http"

	"strategypilot/backend/internal/platform/roles"
)

// RequireRole returns middleware that rejects requests whose identity does
// not satisfy the minimum role. 401 when no identity is present (the auth
// middleware did not run or the route is public by mistake), 403 when the
// role rank is insufficient.
func RequireRole(minimum roles.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !roles.HasRole(roles.Role(id.Role), minimum) {
				writeError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
