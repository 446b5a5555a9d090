package domain

import "time"

// Event types emitted by the platform.
const (
	EventSignUp             = "auth.sign_up"
	EventSignIn             = "auth.sign_in"
	EventSignOut            = "auth.sign_out"
	EventPasswordReset      = "auth.password_reset"
	EventImpersonationStart = "impersonation.start"
	EventImpersonationStop  = "impersonation.stop"
	EventInviteSent         = "invitation.sent"
	EventInviteAccepted     = "invitation.accepted"
	EventCheckoutStarted    = "billing.checkout_started"
)

// Event is a domain event emitted fire-and-forget onto the bus. The JSON
// field names are part of the wire contract between the server and the
// worker.
type Event struct {
	OrgID     string            `json:"orgId,omitempty"`
	UserID    string            `json:"userId,omitempty"`
	ActorID   string            `json:"actorId,omitempty"`
	SessionID string            `json:"sessionId,omitempty"`
	EventType string            `json:"eventType"`
	Source    string            `json:"source,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}
