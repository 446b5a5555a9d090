package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"strategypilot/backend/internal/platform/rbac"
	"strategypilot/backend/internal/security"
)

type stubValidator struct {
	id  security.AccessIdentity
	err error
}

func (s stubValidator) ValidateAccess(string) (security.AccessIdentity, error) {
	return s.id, s.err
}

func authChain(v AccessValidator, public map[string]bool) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := rbac.IdentityFrom(r.Context()); ok {
			w.Header().Set("X-Test-User", id.UserID)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return BearerAuth(v, public)(inner)
}

func TestBearerAuthRejectsMissingToken(t *testing.T) {
	h := authChain(stubValidator{}, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/teams", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestBearerAuthRejectsInvalidToken(t *testing.T) {
	h := authChain(stubValidator{err: errors.New("expired")}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/teams", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestBearerAuthSetsIdentity(t *testing.T) {
	h := authChain(stubValidator{id: security.AccessIdentity{UserID: "user-1"}}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/teams", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("X-Test-User"); got != "user-1" {
		t.Fatalf("identity user = %q, want user-1", got)
	}
}

func TestBearerAuthPublicPath(t *testing.T) {
	public := map[string]bool{"/api/v1/auth/sign-in": true}
	h := authChain(stubValidator{err: errors.New("no token")}, public)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/sign-in", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("public path without token: status = %d, want 204", rec.Code)
	}

	// A bad token on a public path still passes through without identity.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/sign-in", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("public path with stale token: status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("X-Test-User"); got != "" {
		t.Fatalf("expected no identity, got user %q", got)
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name   string
		fwd    string
		real   string
		remote string
		want   string
	}{
		{"forwarded single", "10.1.2.3", "", "192.0.2.1:1234", "10.1.2.3"},
		{"forwarded chain", "10.1.2.3, 172.16.0.1", "", "192.0.2.1:1234", "10.1.2.3"},
		{"real ip", "", "10.9.8.7", "192.0.2.1:1234", "10.9.8.7"},
		{"remote addr", "", "", "192.0.2.1:1234", "192.0.2.1"},
		{"remote without port", "", "", "192.0.2.1", "192.0.2.1"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.remote
		if tc.fwd != "" {
			req.Header.Set("X-Forwarded-For", tc.fwd)
		}
		if tc.real != "" {
			req.Header.Set("X-Real-Ip", tc.real)
		}
		if got := ClientIP(req); got != tc.want {
			t.Errorf("%s: ClientIP = %q, want %q", tc.name, got, tc.want)
		}
	}
}
