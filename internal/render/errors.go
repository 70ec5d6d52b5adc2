package render

import "errors"

// Common errors returned by render clients
var (
	// ErrEndpoint is returned when the HTTP call to the generation
	// endpoint fails (network, timeout, non-2xx status).
	ErrEndpoint = errors.New("generation endpoint call failed")

	// ErrInvalidResponse is returned when the endpoint response cannot be
	// parsed or the artifact cannot be decoded.
	ErrInvalidResponse = errors.New("invalid response from generation endpoint")

	// ErrNoArtifact is returned when a generation call succeeds but the
	// response carries no artifact.
	ErrNoArtifact = errors.New("endpoint returned no artifact")

	// ErrInvalidConfig is returned when the client configuration is
	// invalid.
	ErrInvalidConfig = errors.New("invalid render client configuration")
)
