// Package audit records tracked API actions and serves the audit trail.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"strategypilot/backend/internal/audit/domain"
	auditrepo "strategypilot/backend/internal/audit/repository"
)

// Entry describes one action to record. UserID is the effective user; ActorID
// is set when the action ran under impersonation.
type Entry struct {
	OrgID    string
	UserID   string
	ActorID  string
	Action   string
	Resource string
	IP       string
}

// Recorder persists audit entries. Record is best-effort: failures are logged
// and do not affect the caller.
type Recorder struct {
	repo auditrepo.Repository
}

func NewRecorder(repo auditrepo.Repository) *Recorder {
	return &Recorder{repo: repo}
}

// Record writes one audit log row. Errors are logged and not returned.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil || r.repo == nil {
		return
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		OrgID:     e.OrgID,
		UserID:    e.UserID,
		ActorID:   e.ActorID,
		Action:    e.Action,
		Resource:  e.Resource,
		IP:        e.IP,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to record %s/%s: %v", e.Action, e.Resource, err)
	}
}
