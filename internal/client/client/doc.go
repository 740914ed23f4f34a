// Package client contains the network and storage bootstrap used by the
// orgkeeper CLI.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface): login,
//     Ping, paginated resource fetches, directory fetches and ShareResource.
//  2. A gRPC implementation (see GRPCClient). Message bodies travel as JSON
//     through a codec registered under the "json" content-subtype. An
//     interceptor injects the access token and refreshes it when the server
//     reports it expired or when its exp claim is about to pass.
//  3. Local persistence bootstrap (InitDatabase), which opens SQLite with
//     foreign keys enabled and applies the embedded goose migrations.
//
// # Error Handling
//
// Status codes are mapped to sentinel errors that callers can match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrRejected,
// ErrLocalDataNotAvailable.
//
// Concurrency & Contexts
//
// GRPCClient is safe for concurrent use; token state is guarded by a mutex
// and concurrent refreshes collapse into one. All operations accept
// context.Context and honor cancellation.
package client
