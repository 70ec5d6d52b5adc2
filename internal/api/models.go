package api

import "encoding/json"

// Common request/response structures

// SubmitTaskRequest defines the payload for submitting a generation task.
type SubmitTaskRequest struct {
	// Kind selects the generation operation, "generate" or "transform".
	Kind string `json:"kind" validate:"required,oneof=generate transform"`

	// Payload is forwarded to the render endpoint as-is.
	Payload json.RawMessage `json:"payload" validate:"required"`
}

// SubmitTaskResponse defines the successful response for task submission.
type SubmitTaskResponse struct {
	TaskID string `json:"task_id"`
}

// TaskStatusResponse defines the poll result for a task.
type TaskStatusResponse struct {
	TaskID string `json:"task_id"`
	State  string `json:"state"`

	// Data is the base64-encoded artifact, when one exists.
	Data []byte `json:"data,omitempty"`

	// Final reports whether Data is the finished artifact rather than a
	// live preview.
	Final bool `json:"final"`

	// Revision increments whenever Data changes, so rapid pollers can
	// detect "no change" cheaply.
	Revision uint64 `json:"revision"`

	// Error carries the failure message for failed tasks.
	Error string `json:"error,omitempty"`
}

// EnqueueItemRequest defines the payload for queueing a playback item.
type EnqueueItemRequest struct {
	Source string   `json:"source" validate:"required,min=1"`
	Title  string   `json:"title"`
	Volume *float64 `json:"volume,omitempty" validate:"omitempty,gte=0,lte=2"`
}

// AnnounceRequest defines the payload for interrupting playback with an
// announcement. Text overrides the composed line when set.
type AnnounceRequest struct {
	Source string `json:"source" validate:"required,min=1"`
	Title  string `json:"title"`
	Text   string `json:"text"`
}

// AnnounceResponse reports the line that accompanies the announcement.
type AnnounceResponse struct {
	Line string `json:"line"`
}

// QueueViewResponse defines the queue snapshot for a session.
type QueueViewResponse struct {
	NowPlaying string   `json:"now_playing,omitempty"`
	Pending    []string `json:"pending"`
}

// VolumeRequest defines the payload for setting session volume.
type VolumeRequest struct {
	Volume float64 `json:"volume" validate:"gte=0,lte=2"`
}

// VolumeResponse reports a session's current volume.
type VolumeResponse struct {
	Volume float64 `json:"volume"`
}
