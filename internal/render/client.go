package render

import (
	"context"
	"encoding/json"

	"github.com/undergrid/stagehand/internal/domain"
)

// Client defines the interface for the external generation endpoint.
// This interface is the boundary between the tracker and whatever diffusion
// backend actually renders images; the tracker forwards payloads through it
// without inspecting them.
type Client interface {
	// Generate dispatches a generation call and blocks until the endpoint
	// returns. It returns the decoded artifact bytes, or an error if the
	// call failed or produced no artifact. The taskID is forwarded so the
	// endpoint can correlate progress requests.
	Generate(ctx context.Context, taskID string, kind domain.TaskKind, payload json.RawMessage) ([]byte, error)

	// Preview fetches the latest live preview for an in-flight task.
	// It returns the decoded preview bytes (nil when the endpoint has no
	// preview yet) and whether the endpoint still considers the task
	// active.
	Preview(ctx context.Context, taskID string) (data []byte, active bool, err error)
}
