package suggestion

import "errors"

var (
	// ErrSessionNotFound indicates the session id is unknown.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidSignal indicates a malformed turn signal. Session state
	// is untouched.
	ErrInvalidSignal = errors.New("invalid turn signal")

	// ErrSuperseded indicates a newer turn for the same session began
	// while this one was in flight. Internal; the transport layer drops
	// the turn silently instead of surfacing it.
	ErrSuperseded = errors.New("turn superseded by newer input")

	// ErrAllSourcesFailed indicates every candidate source was
	// unreachable and the turn produced nothing.
	ErrAllSourcesFailed = errors.New("all candidate sources failed")

	// ErrSessionTerminated indicates the session was already closed.
	ErrSessionTerminated = errors.New("session terminated")
)
