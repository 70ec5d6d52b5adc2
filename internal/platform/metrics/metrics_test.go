package metrics

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undergrid/stagehand/internal/events"
)

func TestCollectorTracksTaskLifecycle(t *testing.T) {
	c := NewCollector()
	ctx := context.Background()
	id := uuid.New()

	c.HandleEvent(ctx, events.TaskEvent{Type: events.TaskSubmitted, TaskID: id})
	c.HandleEvent(ctx, events.TaskEvent{Type: events.TaskStarted, TaskID: id})
	c.HandleEvent(ctx, events.TaskEvent{Type: events.TaskInterim, TaskID: id})
	c.HandleEvent(ctx, events.TaskEvent{
		Type:    events.TaskCompleted,
		TaskID:  id,
		Elapsed: 12 * time.Second,
	})
	c.RecordItemPlayed()
	c.RecordPlaybackError()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, body, "stagehand_tasks_submitted_total 1")
	assert.Contains(t, body, "stagehand_tasks_completed_total 1")
	assert.Contains(t, body, "stagehand_previews_stored_total 1")
	assert.Contains(t, body, "stagehand_tasks_in_flight 0")
	assert.Contains(t, body, "stagehand_items_played_total 1")
	assert.Contains(t, body, "stagehand_playback_errors_total 1")
	assert.True(t, strings.Contains(body, "stagehand_generation_duration_seconds_count 1"))
}

func TestCollectorsAreIndependent(t *testing.T) {
	// Each collector registers on its own registry, so tests and multiple
	// instances never collide.
	a := NewCollector()
	b := NewCollector()

	a.HandleEvent(context.Background(), events.TaskEvent{Type: events.TaskSubmitted})

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "stagehand_tasks_submitted_total 0")
}
