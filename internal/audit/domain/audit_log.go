package domain

import "time"

// AuditLog records one tracked API action. ActorID differs from UserID
// when the action was performed under impersonation.
type AuditLog struct {
	ID        string
	OrgID     string
	UserID    string
	ActorID   string
	Action    string
	Resource  string
	IP        string
	CreatedAt time.Time
}
