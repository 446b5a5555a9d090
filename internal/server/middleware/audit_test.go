package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"strategypilot/backend/internal/audit"
	auditdomain "strategypilot/backend/internal/audit/domain"
	"strategypilot/backend/internal/platform/rbac"
	"strategypilot/backend/internal/security"
)

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

func auditedRouter(repo *memAuditRepo, skip map[string]bool) *chi.Mux {
	r := chi.NewRouter()
	r.Use(Audit(audit.NewRecorder(repo), skip))
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }
	r.Post("/api/v1/teams", ok)
	r.Get("/api/v1/audit-logs", ok)
	return r
}

func asUser(req *http.Request) *http.Request {
	return req.WithContext(rbac.WithIdentity(req.Context(), security.AccessIdentity{
		UserID: "user-1", OrgID: "org-1", Role: "OrgAdmin",
	}))
}

func TestAuditRecordsAuthenticatedRequest(t *testing.T) {
	repo := &memAuditRepo{}
	router := auditedRouter(repo, nil)

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/teams", nil))
	req.Header.Set("X-Forwarded-For", "10.0.0.9")
	router.ServeHTTP(httptest.NewRecorder(), req)

	if len(repo.logs) != 1 {
		t.Fatalf("expected 1 audit log, got %d", len(repo.logs))
	}
	got := repo.logs[0]
	if got.Action != "create" || got.Resource != "team" {
		t.Errorf("action/resource = %s/%s, want create/team", got.Action, got.Resource)
	}
	if got.OrgID != "org-1" || got.UserID != "user-1" {
		t.Errorf("org/user = %s/%s", got.OrgID, got.UserID)
	}
	if got.IP != "10.0.0.9" {
		t.Errorf("IP = %q, want 10.0.0.9", got.IP)
	}
}

func TestAuditSkipsAnonymousRequests(t *testing.T) {
	repo := &memAuditRepo{}
	router := auditedRouter(repo, nil)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/teams", nil))

	if len(repo.logs) != 0 {
		t.Fatalf("expected no logs for anonymous request, got %d", len(repo.logs))
	}
}

func TestAuditSkipsConfiguredPatterns(t *testing.T) {
	repo := &memAuditRepo{}
	router := auditedRouter(repo, map[string]bool{"/api/v1/audit-logs": true})

	router.ServeHTTP(httptest.NewRecorder(), asUser(httptest.NewRequest(http.MethodGet, "/api/v1/audit-logs", nil)))

	if len(repo.logs) != 0 {
		t.Fatalf("expected audit listing to be skipped, got %d logs", len(repo.logs))
	}
}
