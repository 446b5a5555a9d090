package audit

import "testing"

func TestParseRoute(t *testing.T) {
	cases := []struct {
		method   string
		pattern  string
		action   string
		resource string
	}{
		{"POST", "/api/v1/auth/sign-in", "sign_in", "auth"},
		{"POST", "/api/v1/auth/sign-up", "sign_up", "auth"},
		{"POST", "/api/v1/auth/refresh", "token_refreshed", "auth"},
		{"POST", "/api/v1/auth/password-reset/confirm", "password_reset", "auth"},
		{"POST", "/api/v1/impersonation", "impersonation_started", "user"},
		{"DELETE", "/api/v1/impersonation", "impersonation_stopped", "user"},
		{"PATCH", "/api/v1/users/{userID}/role", "role_changed", "user"},
		{"PATCH", "/api/v1/users/{userID}/team", "team_assigned", "user"},
		{"DELETE", "/api/v1/users/{userID}", "user_removed", "user"},
		{"GET", "/api/v1/users", "list", "user"},
		{"GET", "/api/v1/teams/{teamID}", "get", "team"},
		{"POST", "/api/v1/teams", "create", "team"},
		{"PATCH", "/api/v1/teams/{teamID}", "update", "team"},
		{"DELETE", "/api/v1/teams/{teamID}", "delete", "team"},
		{"POST", "/api/v1/invitations", "create", "invitation"},
		{"POST", "/api/v1/invitations/accept", "invitation_accepted", "invitation"},
		{"POST", "/api/v1/billing/checkout", "checkout_started", "billing"},
		{"GET", "/api/v1/audit-logs", "list", "audit_log"},
		{"POST", "/api/v1/teams/", "create", "team"},
		{"DELETE", "/api/v1/impersonation/", "impersonation_stopped", "user"},
		{"GET", "/healthz", "get", "unknown"},
	}
	for _, tc := range cases {
		got := ParseRoute(tc.method, tc.pattern)
		if got.Action != tc.action || got.Resource != tc.resource {
			t.Errorf("ParseRoute(%s, %s) = %s/%s, want %s/%s",
				tc.method, tc.pattern, got.Action, got.Resource, tc.action, tc.resource)
		}
	}
}
