package events

import (
	"log/slog"

	"onre/core/types"
)

// Event represents a structured state change emitted by an engine.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (RPC, indexers, logs).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events. It
// is the default for engines whose caller does not care about events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// LogEmitter writes every event to a structured logger. The daemon uses it so
// state changes land in the same stream as the rest of the logs.
type LogEmitter struct {
	Logger *slog.Logger
}

// Emit implements the Emitter interface.
func (l LogEmitter) Emit(event Event) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{"type", event.EventType()}
	if payload, ok := event.(interface{ Event() *types.Event }); ok {
		if converted := payload.Event(); converted != nil {
			for key, value := range converted.Attributes {
				attrs = append(attrs, key, value)
			}
		}
	}
	logger.Info("event", attrs...)
}
