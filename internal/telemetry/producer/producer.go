package producer

import (
	"context"

	"strategypilot/backend/internal/telemetry/domain"
)

// Producer publishes events to the audit bus.
type Producer interface {
	Emit(ctx context.Context, event domain.Event) error
	Close() error
}
