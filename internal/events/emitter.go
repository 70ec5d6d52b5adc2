package events

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryEmitter is a simple implementation of the Emitter interface that
// stores registered handlers in memory and dispatches events to them
// synchronously.
type InMemoryEmitter struct {
	handlers []Handler
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryEmitter creates a new instance of InMemoryEmitter.
func NewInMemoryEmitter(logger *slog.Logger) *InMemoryEmitter {
	return &InMemoryEmitter{
		handlers: make([]Handler, 0),
		logger:   logger.With("component", "event_emitter"),
	}
}

// RegisterHandler adds a new event handler to receive events.
func (e *InMemoryEmitter) RegisterHandler(handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered event handler", "handler_count", len(e.handlers))
}

// Emit publishes the given event to all registered handlers. A panicking
// handler is recovered and logged so one observer cannot take down the
// emitting loop.
func (e *InMemoryEmitter) Emit(ctx context.Context, event TaskEvent) {
	e.mu.RLock()
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	for i, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.logger.Error("event handler panicked",
						"panic", r,
						"handler_index", i,
						"event_type", event.Type,
						"task_id", event.TaskID)
				}
			}()
			handler.HandleEvent(ctx, event)
		}()
	}
}
