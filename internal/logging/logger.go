// Package logging is the structured logger every service receives. Services
// scope it once with With("module", ...) and log with the request context.
package logging

import "context"

// Logger takes key-value pairs after the message:
//
//	log.Info(ctx, "sync completed", "resources", n, "skipped", skipped)
//
// Debug is for per-item detail such as skipped resources. Warn is for data
// that was dropped but did not stop a run. Error is for failed runs.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}
