package replbridge

import "errors"

// Sentinel errors for session operations.
var (
	// ErrEngineUnavailable indicates a session could not be established:
	// the engine binary was not found, an endpoint variable is missing,
	// or an endpoint did not answer.
	ErrEngineUnavailable = errors.New("replbridge: engine unavailable")

	// ErrSessionClosed indicates the session was closed, either by Close
	// or because the engine connection went away.
	ErrSessionClosed = errors.New("replbridge: session closed")

	// ErrProtocol indicates the engine violated the wire protocol: a
	// reply tag that does not answer the outstanding request, a reply
	// that is not valid JSON, or a stream line with an unrecognized
	// selector. Protocol violations are fatal; the session records the
	// first one and every later call returns it.
	ErrProtocol = errors.New("replbridge: protocol violation")
)
