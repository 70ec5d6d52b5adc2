package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskState represents the current state of a generation task.
type TaskState string

// Possible task state values
const (
	TaskStateQueued   TaskState = "queued"
	TaskStateRunning  TaskState = "running"
	TaskStateComplete TaskState = "complete"
	TaskStateFailed   TaskState = "failed"
)

// Terminal reports whether the state is a terminal state. A task in a
// terminal state is never mutated again by the worker.
func (s TaskState) Terminal() bool {
	return s == TaskStateComplete || s == TaskStateFailed
}

// TaskKind selects which endpoint variant a task is dispatched to.
type TaskKind string

// Possible task kind values
const (
	// TaskKindGenerate produces a new artifact from the payload alone.
	TaskKindGenerate TaskKind = "generate"

	// TaskKindTransform produces an artifact derived from an input image
	// carried inside the payload.
	TaskKindTransform TaskKind = "transform"
)

// Valid reports whether the kind is one of the known variants.
func (k TaskKind) Valid() bool {
	return k == TaskKindGenerate || k == TaskKindTransform
}

// Task is a unit of generation work. The payload is an opaque parameter bag
// forwarded verbatim to the external endpoint; the tracker never inspects it
// except for routing by kind.
type Task struct {
	ID          uuid.UUID
	Kind        TaskKind
	Payload     json.RawMessage
	State       TaskState
	SubmittedAt time.Time
}

// NewTask creates a queued task with a fresh id.
func NewTask(kind TaskKind, payload json.RawMessage) *Task {
	return &Task{
		ID:          uuid.New(),
		Kind:        kind,
		Payload:     payload,
		State:       TaskStateQueued,
		SubmittedAt: time.Now().UTC(),
	}
}

// Artifact is a stored result for a task: either an interim preview or the
// terminal output. Revision increments only when the stored bytes change, so
// a caller polling rapidly can detect "no change" without comparing payloads.
type Artifact struct {
	// Data holds the raw artifact bytes (decoded from the endpoint's
	// base64 encoding).
	Data []byte

	// Final distinguishes the terminal artifact from an interim preview.
	Final bool

	// Revision is a monotonic counter, bumped each time Data changes.
	Revision uint64

	// StoredAt records when this artifact was last written.
	StoredAt time.Time
}
