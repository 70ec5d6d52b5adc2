package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Volume bounds enforced for session defaults and per-item overrides.
const (
	MinVolume     = 0.0
	MaxVolume     = 2.0
	DefaultVolume = 1.0
)

// Item is an entry in a session's play queue.
type Item struct {
	// Source references the playable media (a file path or other
	// resolver-understood identifier).
	Source string

	// Title is the display name. When empty, the source's base name
	// without extension is used.
	Title string

	// Announcement marks ephemeral items (spoken announcements) that are
	// not reported as "now playing" and are never resumed after an
	// interruption.
	Announcement bool

	// Seek is the starting offset, set when re-queueing a track that was
	// preempted by an announcement.
	Seek time.Duration

	// Volume optionally overrides the session default for this item.
	Volume *float64
}

// DisplayName returns the item's title, falling back to the source's base
// name without its extension.
func (it Item) DisplayName() string {
	if it.Title != "" {
		return it.Title
	}
	base := filepath.Base(it.Source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ClampVolume limits v to the supported playback range.
func ClampVolume(v float64) float64 {
	if v < MinVolume {
		return MinVolume
	}
	if v > MaxVolume {
		return MaxVolume
	}
	return v
}

// QueueView is a read-only snapshot of a session's queue state.
type QueueView struct {
	// NowPlaying is the display name of the current real track, empty when
	// nothing is playing or an announcement is playing.
	NowPlaying string

	// Pending lists display names of queued items in play order.
	Pending []string
}
