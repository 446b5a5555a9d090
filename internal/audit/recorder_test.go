package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"strategypilot/backend/internal/audit/domain"
)

type memAuditRepo struct {
	mu        sync.Mutex
	logs      []*domain.AuditLog
	createErr error
}

func (m *memAuditRepo) Create(_ context.Context, a *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *a
	m.logs = append(m.logs, &cp)
	return nil
}

func (m *memAuditRepo) ListByOrg(_ context.Context, orgID string, limit, offset int32) ([]*domain.AuditLog, error) {
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

func (m *memAuditRepo) ListAll(_ context.Context, limit, offset int32) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.AuditLog(nil), m.logs...), nil
}

func TestRecorderPersistsEntry(t *testing.T) {
	repo := &memAuditRepo{}
	rec := NewRecorder(repo)

	rec.Record(context.Background(), Entry{
		OrgID:    "org-1",
		UserID:   "user-1",
		ActorID:  "support-1",
		Action:   "role_changed",
		Resource: "user",
		IP:       "10.0.0.1",
	})

	if len(repo.logs) != 1 {
		t.Fatalf("expected 1 audit log, got %d", len(repo.logs))
	}
	got := repo.logs[0]
	if got.ID == "" {
		t.Error("expected generated ID")
	}
	if got.ActorID != "support-1" {
		t.Errorf("ActorID = %q, want support-1", got.ActorID)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be stamped")
	}
}

func TestRecorderSwallowsRepoFailure(t *testing.T) {
	repo := &memAuditRepo{createErr: errors.New("db down")}
	rec := NewRecorder(repo)

	// Must not panic or surface the error.
	rec.Record(context.Background(), Entry{OrgID: "org-1", Action: "get", Resource: "team"})

	if len(repo.logs) != 0 {
		t.Fatalf("expected no logs persisted, got %d", len(repo.logs))
	}
}

func TestRecorderNilReceiverAndRepo(t *testing.T) {
	var rec *Recorder
	rec.Record(context.Background(), Entry{Action: "get", Resource: "team"})
	NewRecorder(nil).Record(context.Background(), Entry{Action: "get", Resource: "team"})
}
