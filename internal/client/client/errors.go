package client

import "errors"

// Transport outcomes, mapped from gRPC status codes by mapError. Callers
// decide on retry or offline fallback by matching these with errors.Is.
var (
	// ErrUnavailable means the server could not be reached or timed out.
	ErrUnavailable = errors.New("server unavailable")
	// ErrUnauthorized means the session or the credentials were refused.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRejected means the server understood the request and refused it,
	// e.g. a share delta that breaks a server-side rule.
	ErrRejected = errors.New("request rejected by server")

	// ErrLocalDataNotAvailable is returned by offline login when nothing
	// was cached by a previous online login.
	ErrLocalDataNotAvailable = errors.New("local data unavailable")
)
