// Package events provides lightweight in-process notification of task
// lifecycle changes, decoupling the tracker from observers such as metrics
// and the audit store.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/undergrid/stagehand/internal/domain"
)

// EventType identifies what happened to a task.
type EventType string

// Task lifecycle event types
const (
	TaskSubmitted EventType = "task.submitted"
	TaskStarted   EventType = "task.started"
	TaskInterim   EventType = "task.interim"
	TaskCompleted EventType = "task.completed"
	TaskFailed    EventType = "task.failed"
)

// TaskEvent describes one task lifecycle transition.
type TaskEvent struct {
	Type   EventType
	TaskID uuid.UUID
	Kind   domain.TaskKind

	// Err carries the failure message for TaskFailed events.
	Err string

	// Elapsed is the time from submission to the transition, populated on
	// terminal events.
	Elapsed time.Duration

	At time.Time
}

// Handler processes task lifecycle events.
type Handler interface {
	// HandleEvent processes a single event. Implementations must not
	// block for long; they are invoked inline by the emitting loop.
	HandleEvent(ctx context.Context, event TaskEvent)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event TaskEvent)

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event TaskEvent) {
	f(ctx, event)
}

// Emitter publishes task lifecycle events to registered handlers.
type Emitter interface {
	// RegisterHandler adds a handler to receive future events.
	RegisterHandler(handler Handler)

	// Emit publishes the event to all registered handlers.
	Emit(ctx context.Context, event TaskEvent)
}
