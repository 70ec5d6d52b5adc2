package api

import (
	"errors"
	"net/http"

	"github.com/undergrid/stagehand/internal/auth"
	"github.com/undergrid/stagehand/internal/domain"
	"github.com/undergrid/stagehand/internal/tracker"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, domain.ErrTaskNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound

	// Backpressure
	case errors.Is(err, tracker.ErrQueueFull):
		return http.StatusServiceUnavailable

	// Bad request errors
	case errors.Is(err, domain.ErrInvalidKind),
		errors.Is(err, domain.ErrInvalidVolume),
		errors.Is(err, domain.ErrEmptySource):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, domain.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, domain.ErrSessionNotFound):
		return "Session not found"

	case errors.Is(err, tracker.ErrQueueFull):
		return "Task queue is full, try again later"

	case errors.Is(err, domain.ErrInvalidKind):
		return "Invalid task kind"

	case errors.Is(err, domain.ErrInvalidVolume):
		return "Volume must be between 0.0 and 2.0"

	case errors.Is(err, domain.ErrEmptySource):
		return "Source must not be empty"

	default:
		return "An unexpected error occurred"
	}
}
