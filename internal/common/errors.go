// Package common defines shared constants and sentinel errors used across
// orgkeeper client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal    = errors.New("internal error")
	ErrSessionClosed = errors.New("share session closed")
	ErrNotLoggedIn   = errors.New("not logged in")

	// Cancellation. Not a failure: callers log it at info level.
	ErrCancelled = errors.New("cancelled")

	// Data-invalid errors. The offending item is skipped, the run continues.
	ErrInvalidMetadata     = errors.New("invalid metadata")
	ErrMetadataMismatch    = errors.New("metadata does not match legacy fields")
	ErrMetadataUnsupported = errors.New("encrypted metadata is not enabled")
	ErrSchemaViolation     = errors.New("resource does not match its type schema")
	ErrUnsupportedType     = errors.New("unsupported resource type")

	// Invariant violations.
	ErrOwnerMissing   = errors.New("at least one owner is required")
	ErrDanglingFolder = errors.New("folder parent is missing or cyclic")

	// Auth errors.
	ErrTokenExpired = errors.New("token expired")
)
