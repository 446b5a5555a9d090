package audit

import "strings"

// ActionResource holds action and resource derived from an HTTP method and route pattern.
type ActionResource struct {
	Action   string
	Resource string
}

// routeOverrides maps "METHOD pattern" to an explicit action/resource pair for
// routes whose generic derivation would be misleading.
var routeOverrides = map[string]ActionResource{
	"POST /api/v1/auth/sign-up":                {Action: "sign_up", Resource: "auth"},
	"POST /api/v1/auth/sign-in":                {Action: "sign_in", Resource: "auth"},
	"POST /api/v1/auth/sign-out":               {Action: "sign_out", Resource: "auth"},
	"POST /api/v1/auth/refresh":                {Action: "token_refreshed", Resource: "auth"},
	"POST /api/v1/auth/password-reset/request": {Action: "password_reset_requested", Resource: "auth"},
	"POST /api/v1/auth/password-reset/confirm": {Action: "password_reset", Resource: "auth"},
	"POST /api/v1/auth/confirm-email":          {Action: "email_confirmed", Resource: "auth"},
	"POST /api/v1/impersonation":               {Action: "impersonation_started", Resource: "user"},
	"DELETE /api/v1/impersonation":             {Action: "impersonation_stopped", Resource: "user"},
	"PATCH /api/v1/users/{userID}/role":        {Action: "role_changed", Resource: "user"},
	"PATCH /api/v1/users/{userID}/team":        {Action: "team_assigned", Resource: "user"},
	"DELETE /api/v1/users/{userID}":            {Action: "user_removed", Resource: "user"},
	"POST /api/v1/invitations/accept":          {Action: "invitation_accepted", Resource: "invitation"},
	"POST /api/v1/billing/checkout":            {Action: "checkout_started", Resource: "billing"},
	"POST /api/v1/billing/portal":              {Action: "portal_opened", Resource: "billing"},
}

// resourceNames maps the first path segment after the API prefix to the
// singular resource name recorded in the audit trail.
var resourceNames = map[string]string{
	"auth":          "auth",
	"users":         "user",
	"teams":         "team",
	"invitations":   "invitation",
	"sessions":      "session",
	"organizations": "organization",
	"billing":       "billing",
	"audit-logs":    "audit_log",
	"impersonation": "user",
	"me":            "user",
}

const apiPrefix = "/api/v1/"

// ParseRoute returns the action and resource for an HTTP method and chi route
// pattern (e.g. PATCH /api/v1/teams/{teamID}). Action is a verb derived from
// the method: get, list, create, update, delete. Resource is the singular form
// of the first path segment.
func ParseRoute(method, pattern string) ActionResource {
	// chi reports subrouter roots with a trailing slash (/api/v1/teams/).
	if len(pattern) > 1 {
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if ar, ok := routeOverrides[method+" "+pattern]; ok {
		return ar
	}
	rest, ok := strings.CutPrefix(pattern, apiPrefix)
	if !ok {
		return ActionResource{Action: strings.ToLower(method), Resource: "unknown"}
	}
	segment, remainder, _ := strings.Cut(rest, "/")
	resource, ok := resourceNames[segment]
	if !ok {
		resource = segment
	}
	return ActionResource{Action: methodToAction(method, remainder), Resource: resource}
}

func methodToAction(method, remainder string) string {
	switch method {
	case "GET":
		if strings.Contains(remainder, "{") {
			return "get"
		}
		return "list"
	case "POST":
		return "create"
	case "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	default:
		return strings.ToLower(method)
	}
}
