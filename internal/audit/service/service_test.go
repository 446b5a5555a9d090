package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"strategypilot/backend/internal/audit/domain"
	"strategypilot/backend/internal/platform/roles"
)

type memRepo struct {
	mu   sync.Mutex
	logs []*domain.AuditLog
}

func (m *memRepo) Create(_ context.Context, a *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, a)
	return nil
}

func (m *memRepo) ListByOrg(_ context.Context, orgID string, limit, offset int32) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AuditLog
	for _, a := range m.logs {
		if a.OrgID == orgID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memRepo) ListAll(_ context.Context, limit, offset int32) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.AuditLog(nil), m.logs...), nil
}

func seeded() *memRepo {
	return &memRepo{logs: []*domain.AuditLog{
		{ID: "a", OrgID: "org-1", Action: "sign_in", Resource: "auth"},
		{ID: "b", OrgID: "org-2", Action: "create", Resource: "team"},
		{ID: "c", OrgID: "org-1", Action: "role_changed", Resource: "user"},
	}}
}

func TestSupportListsAcrossOrgs(t *testing.T) {
	svc := NewService(seeded())

	all, err := svc.List(context.Background(), "org-9", roles.RoleSupport, "", 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 logs, got %d", len(all))
	}

	filtered, err := svc.List(context.Background(), "org-9", roles.RoleSupport, "org-2", 0, 0)
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "b" {
		t.Fatalf("expected only org-2's log, got %d", len(filtered))
	}
}

func TestOrgAdminPinnedToOwnOrg(t *testing.T) {
	svc := NewService(seeded())

	// The requested filter must be ignored for non-support callers.
	got, err := svc.List(context.Background(), "org-1", roles.RoleOrgAdmin, "org-2", 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected org-1's 2 logs, got %d", len(got))
	}
	for _, a := range got {
		if a.OrgID != "org-1" {
			t.Errorf("leaked log from %s", a.OrgID)
		}
	}
}

func TestLowerRolesRefused(t *testing.T) {
	svc := NewService(seeded())
	for _, role := range []roles.Role{roles.RoleTeamAdmin, roles.RoleMember, roles.Role("bogus")} {
		if _, err := svc.List(context.Background(), "org-1", role, "", 0, 0); !errors.Is(err, ErrNotAllowed) {
			t.Errorf("role %s: expected ErrNotAllowed, got %v", role, err)
		}
	}
}
