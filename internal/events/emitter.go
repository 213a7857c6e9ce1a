package events

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

type registration struct {
	handler EventHandler
	types   []Type
}

func (r registration) accepts(t Type) bool {
	return len(r.types) == 0 || slices.Contains(r.types, t)
}

// InMemoryEventEmitter dispatches events synchronously to registered
// handlers.
type InMemoryEventEmitter struct {
	handlers []registration
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryEventEmitter creates a new instance of InMemoryEventEmitter.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{
		logger: logger.With(slog.String("component", "event_emitter")),
	}
}

// RegisterHandler subscribes handler to the given event types, or to every
// type when none are given.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler, types ...Type) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, registration{handler: handler, types: types})
	e.logger.Debug("registered event handler", slog.Int("handler_count", len(e.handlers)))
}

// EmitEvent delivers event to every matching handler. A failing handler
// does not stop delivery; the first error is returned.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *Event) error {
	e.mu.RLock()
	handlers := slices.Clone(e.handlers)
	e.mu.RUnlock()

	var firstErr error
	delivered := 0
	for i, r := range handlers {
		if !r.accepts(event.Type) {
			continue
		}
		delivered++
		if err := r.handler.HandleEvent(ctx, event); err != nil {
			e.logger.Error("handler failed to process event",
				slog.String("error", err.Error()),
				slog.Int("handler_index", i),
				slog.String("event_id", event.ID.String()),
				slog.String("event_type", string(event.Type)))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	e.logger.Debug("emitted event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.Type)),
		slog.Int("delivered", delivered))
	return firstErr
}
