package telemetry

import (
	"context"

	"strategypilot/backend/internal/telemetry/domain"
)

// EventEmitter publishes domain events. Implementations must be safe for
// concurrent use.
type EventEmitter interface {
	Emit(ctx context.Context, event domain.Event) error
}

// NopEmitter discards every event. Used when no bus is configured.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, domain.Event) error { return nil }
