// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It acts as an adapter between operator clients
// and the tracker and playback subsystems, translating HTTP concerns to
// internal operations.
package api
