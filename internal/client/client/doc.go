// Package client contains the client side transport of vaultblob.
//
// # Overview
//
// The package provides:
//  1. RestClient, an HTTP client for the storage and file data services.
//     Every request first waits for the session's suspension window and is
//     replayed when the server answers with a suspension response.
//  2. ServiceExecutor, which posts JSON service requests with the session's
//     auth headers and the request model version.
//  3. Local persistence bootstrap utilities (InitDatabase, RunMigrations) for
//     the CLI, wiring an SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Non-2xx responses are returned as *RestError. It unwraps to the sentinels
// of package common, so callers match with errors.Is: ErrAccessDenied,
// ErrorNotFound, ErrPrecondition, ErrorInternal. Transport failures wrap
// common.ErrNetwork. Suspension responses never reach the caller.
//
// Concurrency & Contexts
//
// RestClient and ServiceExecutor are safe for concurrent use. All operations
// accept context.Context and honor cancellation.
package client
