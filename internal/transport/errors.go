package transport

import (
	"errors"

	"fire-rescue/viewer/internal/proto"
)

// Failure taxonomy shared by the HTTP client and the live channel. Callers
// branch with errors.Is; no retry policy lives at this layer.
var (
	// ErrServiceUnavailable covers an unreachable server and responses the
	// contract does not allow, including a create call that returns no id.
	ErrServiceUnavailable = errors.New("simulation service unavailable")

	// ErrNotFound reports an id the server does not recognize.
	ErrNotFound = errors.New("simulation not found")

	// ErrCommandRejected reports a step or auto toggle the server refused,
	// either because the id mismatches or the simulation is terminal.
	ErrCommandRejected = errors.New("command rejected")

	// ErrTransport reports a live-channel failure.
	ErrTransport = errors.New("transport error")
)

// ErrMalformedSnapshot is re-exported so callers need only this package for
// the full taxonomy. It is treated as ErrServiceUnavailable-equivalent.
var ErrMalformedSnapshot = proto.ErrMalformedSnapshot
