package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStateTerminal(t *testing.T) {
	assert.False(t, TaskStateQueued.Terminal())
	assert.False(t, TaskStateRunning.Terminal())
	assert.True(t, TaskStateComplete.Terminal())
	assert.True(t, TaskStateFailed.Terminal())
}

func TestTaskKindValid(t *testing.T) {
	assert.True(t, TaskKindGenerate.Valid())
	assert.True(t, TaskKindTransform.Valid())
	assert.False(t, TaskKind("upscale").Valid())
	assert.False(t, TaskKind("").Valid())
}

func TestNewTask(t *testing.T) {
	payload := json.RawMessage(`{"prompt":"a red barn"}`)
	task := NewTask(TaskKindGenerate, payload)

	require.NotNil(t, task)
	assert.NotEqual(t, task.ID.String(), "00000000-0000-0000-0000-000000000000")
	assert.Equal(t, TaskStateQueued, task.State)
	assert.Equal(t, payload, task.Payload)
	assert.WithinDuration(t, time.Now().UTC(), task.SubmittedAt, time.Second)
}

func TestItemDisplayName(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want string
	}{
		{name: "title_wins", item: Item{Source: "/media/a.mp3", Title: "Opening Act"}, want: "Opening Act"},
		{name: "base_name_without_ext", item: Item{Source: "/media/library/track01.mp3"}, want: "track01"},
		{name: "no_extension", item: Item{Source: "/media/jingle"}, want: "jingle"},
		{name: "bare_name", item: Item{Source: "song.ogg"}, want: "song"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.DisplayName())
		})
	}
}

func TestClampVolume(t *testing.T) {
	assert.Equal(t, MinVolume, ClampVolume(-0.5))
	assert.Equal(t, 1.2, ClampVolume(1.2))
	assert.Equal(t, MaxVolume, ClampVolume(7.0))
}
