package telemetry

import (
	"context"
	"log"
	"time"

	"strategypilot/backend/internal/telemetry/domain"
)

const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long callers should wait for in-flight
// EmitAsync goroutines before closing the emitter.
const ShutdownDrainDuration = 5 * time.Second

// EmitAsync publishes the event on a background goroutine. Emission is
// best-effort: failures are logged, never surfaced to the request path.
func EmitAsync(emitter EventEmitter, event domain.Event) {
	if emitter == nil {
		return
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(ctx, event); err != nil {
			log.Printf("telemetry: emit %s failed: %v", event.EventType, err)
		}
	}()
}
