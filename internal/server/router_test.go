package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"strategypilot/backend/internal/audit"
	auditdomain "strategypilot/backend/internal/audit/domain"
	audithandler "strategypilot/backend/internal/audit/handler"
	auditservice "strategypilot/backend/internal/audit/service"
	billinghandler "strategypilot/backend/internal/billing/handler"
	billingservice "strategypilot/backend/internal/billing/service"
	healthhandler "strategypilot/backend/internal/health/handler"
	identityhandler "strategypilot/backend/internal/identity/handler"
	identityservice "strategypilot/backend/internal/identity/service"
	imphandler "strategypilot/backend/internal/impersonation/handler"
	impservice "strategypilot/backend/internal/impersonation/service"
	invitationdomain "strategypilot/backend/internal/invitation/domain"
	invitationhandler "strategypilot/backend/internal/invitation/handler"
	invitationservice "strategypilot/backend/internal/invitation/service"
	"strategypilot/backend/internal/platform/roles"
	"strategypilot/backend/internal/security"
	teamdomain "strategypilot/backend/internal/team/domain"
	teamhandler "strategypilot/backend/internal/team/handler"
	userhandler "strategypilot/backend/internal/user/handler"
	userservice "strategypilot/backend/internal/user/service"
)

type mapValidator struct {
	tokens map[string]security.AccessIdentity
}

func (m mapValidator) ValidateAccess(token string) (security.AccessIdentity, error) {
	if id, ok := m.tokens[token]; ok {
		return id, nil
	}
	return security.AccessIdentity{}, security.ErrInvalidToken
}

type memAuditRepo struct {
	mu   sync.Mutex
	logs []*auditdomain.AuditLog
}

func (m *memAuditRepo) Create(_ context.Context, a *auditdomain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, a)
	return nil
}

func (m *memAuditRepo) ListByOrg(context.Context, string, int32, int32) ([]*auditdomain.AuditLog, error) {
	return nil, nil
}

func (m *memAuditRepo) ListAll(context.Context, int32, int32) ([]*auditdomain.AuditLog, error) {
	return nil, nil
}

type stubAuth struct{}

func (stubAuth) SignUp(context.Context, string, string, string, string, string) (*identityservice.AuthResult, error) {
	return &identityservice.AuthResult{UserID: "u"}, nil
}

func (stubAuth) SignIn(context.Context, string, string, string) (*identityservice.AuthResult, error) {
	return &identityservice.AuthResult{UserID: "u"}, nil
}

func (stubAuth) Refresh(context.Context, string) (*identityservice.AuthResult, error) {
	return &identityservice.AuthResult{UserID: "u"}, nil
}

func (stubAuth) SignOut(context.Context, string, string) error { return nil }

func (stubAuth) RequestPasswordReset(context.Context, string) (string, error) { return "", nil }

func (stubAuth) ResetPassword(context.Context, string, string) error { return nil }

func (stubAuth) ConfirmEmail(context.Context, string) error { return nil }

type stubUsers struct{}

func (stubUsers) ListOrgUsers(_ context.Context, actorRole roles.Role, _ string) ([]*userservice.OrgUser, error) {
	if !roles.CanManageUsers(actorRole) {
		return nil, userservice.ErrNotAllowed
	}
	return nil, nil
}

func (stubUsers) UpdateRole(context.Context, roles.Role, string, string, string, roles.Role) error {
	return nil
}

func (stubUsers) AssignTeam(context.Context, roles.Role, string, string, string) error { return nil }

func (stubUsers) RemoveFromOrg(context.Context, roles.Role, string, string, string) error {
	return nil
}

func (stubUsers) UpdateProfile(context.Context, string, string) error { return nil }

type stubTeams struct{}

func (stubTeams) List(context.Context, string) ([]*teamdomain.Team, error) { return nil, nil }

func (stubTeams) Create(_ context.Context, actorRole roles.Role, orgID, name string) (*teamdomain.Team, error) {
	return &teamdomain.Team{ID: "t1", OrgID: orgID, Name: name, CreatedAt: time.Now()}, nil
}

func (stubTeams) Rename(context.Context, roles.Role, string, string, string) error { return nil }

func (stubTeams) Delete(context.Context, roles.Role, string, string) error { return nil }

type stubInvitations struct{}

func (stubInvitations) Create(context.Context, roles.Role, string, string, roles.Role, string, string) (*invitationdomain.Invitation, error) {
	return &invitationdomain.Invitation{ID: "i1", Role: roles.RoleMember}, nil
}

func (stubInvitations) Lookup(context.Context, string) (*invitationdomain.Invitation, error) {
	return nil, invitationservice.ErrInvitationNotFound
}

func (stubInvitations) Accept(context.Context, string, string, string) (*invitationservice.AcceptResult, error) {
	return nil, invitationservice.ErrInvitationNotFound
}

func (stubInvitations) ListPending(context.Context, roles.Role, string) ([]*invitationdomain.Invitation, error) {
	return nil, nil
}

func (stubInvitations) Revoke(context.Context, roles.Role, string, string) error { return nil }

type stubImpersonation struct{}

func (stubImpersonation) Start(context.Context, string, string) (*impservice.StartResult, error) {
	return nil, impservice.ErrNotSupport
}

func (stubImpersonation) Stop(context.Context, string) error { return nil }

type stubIssuer struct{}

func (stubIssuer) IssueAccess(security.AccessIdentity) (string, string, time.Time, error) {
	return "tok", "jti", time.Now().Add(time.Minute), nil
}

type stubBilling struct{}

func (stubBilling) StartCheckout(context.Context, string, string, bool, bool) (*billingservice.CheckoutResult, error) {
	return &billingservice.CheckoutResult{SessionID: "cs_1", RedirectURL: "https://pay"}, nil
}

func (stubBilling) OpenPortal(context.Context, string, string) (string, error) {
	return "https://portal", nil
}

func (stubBilling) GetOverview(context.Context, string) (*billingservice.Overview, error) {
	return &billingservice.Overview{}, nil
}

func testRouter(t *testing.T, repo *memAuditRepo) http.Handler {
	t.Helper()
	validator := mapValidator{tokens: map[string]security.AccessIdentity{
		"member-token":   {SessionID: "s1", UserID: "member-1", OrgID: "org-1", Role: "Member"},
		"admin-token":    {SessionID: "s2", UserID: "admin-1", OrgID: "org-1", Role: "OrgAdmin"},
		"teamlead-token": {SessionID: "s3", UserID: "lead-1", OrgID: "org-1", Role: "TeamAdmin"},
	}}
	return New(Deps{
		Tokens:        validator,
		AuditRecorder: audit.NewRecorder(repo),
		CORSOrigins:   []string{"*"},
		Auth:          identityhandler.NewAuthHandler(stubAuth{}, nil),
		Users:         userhandler.New(stubUsers{}),
		Teams:         teamhandler.New(stubTeams{}),
		Invitations:   invitationhandler.New(stubInvitations{}, nil, ""),
		Impersonation: imphandler.New(stubImpersonation{}, stubIssuer{}, nil),
		Billing:       billinghandler.New(stubBilling{}, nil),
		AuditLogs:     audithandler.New(auditservice.NewService(repo)),
		Health:        healthhandler.New(nil),
	})
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("{}")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpointsArePublic(t *testing.T) {
	h := testRouter(t, &memAuditRepo{})
	if rec := do(t, h, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d, want 200", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/readyz", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("readyz = %d, want 200", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := testRouter(t, &memAuditRepo{})
	if rec := do(t, h, http.MethodGet, "/api/v1/teams", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("teams without token = %d, want 401", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/auth/sign-in", "", `{"email":"a@b.c","password":"x"}`); rec.Code != http.StatusOK {
		t.Fatalf("sign-in without token = %d, want 200", rec.Code)
	}
}

func TestRoleGuards(t *testing.T) {
	h := testRouter(t, &memAuditRepo{})
	cases := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodGet, "/api/v1/teams", "member-token", http.StatusOK},
		{http.MethodPost, "/api/v1/teams", "member-token", http.StatusForbidden},
		{http.MethodPost, "/api/v1/teams", "admin-token", http.StatusCreated},
		{http.MethodGet, "/api/v1/users", "member-token", http.StatusForbidden},
		{http.MethodGet, "/api/v1/users", "teamlead-token", http.StatusOK},
		{http.MethodPatch, "/api/v1/users/u2/role", "teamlead-token", http.StatusForbidden},
		{http.MethodPatch, "/api/v1/users/u2/role", "admin-token", http.StatusNoContent},
		{http.MethodPost, "/api/v1/impersonation", "admin-token", http.StatusForbidden},
		{http.MethodGet, "/api/v1/audit-logs", "member-token", http.StatusForbidden},
		{http.MethodPost, "/api/v1/billing/checkout", "member-token", http.StatusForbidden},
		{http.MethodPost, "/api/v1/billing/checkout", "admin-token", http.StatusCreated},
		{http.MethodGet, "/api/v1/billing/plans", "member-token", http.StatusOK},
	}
	for _, tc := range cases {
		if rec := do(t, h, tc.method, tc.path, tc.token, ""); rec.Code != tc.want {
			t.Errorf("%s %s as %s = %d, want %d: %s", tc.method, tc.path, tc.token, rec.Code, tc.want, rec.Body.String())
		}
	}
}

func TestAuditTrailWrittenForAuthenticatedRequests(t *testing.T) {
	repo := &memAuditRepo{}
	h := testRouter(t, repo)

	do(t, h, http.MethodPost, "/api/v1/teams", "admin-token", `{"name":"Ops"}`)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.logs) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(repo.logs))
	}
	if repo.logs[0].Action != "create" || repo.logs[0].Resource != "team" {
		t.Fatalf("got %s/%s, want create/team", repo.logs[0].Action, repo.logs[0].Resource)
	}
}
