package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"strategypilot/backend/internal/audit"
	"strategypilot/backend/internal/platform/rbac"
)

// Audit returns middleware that records one audit row per authenticated
// request after the handler runs. skipPatterns holds chi route patterns to
// not audit (e.g. the audit listing itself). Recording is best-effort and
// never fails the request.
func Audit(rec *audit.Recorder, skipPatterns map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			id, ok := rbac.IdentityFrom(r.Context())
			if !ok {
				return
			}
			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" || skipPatterns[pattern] {
				return
			}
			ar := audit.ParseRoute(r.Method, pattern)
			rec.Record(r.Context(), audit.Entry{
				OrgID:    id.OrgID,
				UserID:   id.UserID,
				ActorID:  id.ActorID,
				Action:   ar.Action,
				Resource: ar.Resource,
				IP:       ClientIP(r),
			})
		})
	}
}
