package playback

import (
	"context"
	"io"
	"time"
)

// Sink is the audio output a session plays into (a voice connection, a local
// device, or a test double). A Sink plays one stream at a time.
type Sink interface {
	// Play starts playback of the PCM stream at the given volume and
	// returns immediately. done is invoked exactly once when playback
	// finishes, whether it ran to completion, failed, or was stopped.
	Play(stream io.ReadCloser, volume float64, done func(error))

	// Stop halts the current stream, causing the pending done callback to
	// fire promptly. Sessions call Stop while holding their queue lock,
	// so Stop must not re-enter the session; the done callbacks sessions
	// install never block. Stopping an idle sink is a no-op.
	Stop()

	// IsPlaying reports whether a stream is currently playing.
	IsPlaying() bool

	// Close releases the sink's underlying output.
	Close() error
}

// Resolver turns an item's source reference into a playable PCM stream,
// optionally starting at an offset into the media.
type Resolver interface {
	Resolve(ctx context.Context, source string, seek time.Duration) (io.ReadCloser, error)
}

// SinkFactory creates (and connects) the output sink for a session the
// first time the session is used.
type SinkFactory func(sessionID string) (Sink, error)
