// Package domain defines the core entities and errors shared across the
// tracker and playback engines.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrTaskNotFound is returned when a task id has no stored state,
	// either because it was never submitted or because it was purged.
	ErrTaskNotFound = errors.New("task not found")

	// ErrSessionNotFound is returned when a session id has no playback
	// context.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidKind is returned when a task kind is not a known variant.
	ErrInvalidKind = errors.New("invalid task kind")

	// ErrInvalidVolume is returned when a volume is outside the supported
	// range.
	ErrInvalidVolume = errors.New("volume out of range")

	// ErrEmptySource is returned when a playback item has no source.
	ErrEmptySource = errors.New("source cannot be empty")
)
