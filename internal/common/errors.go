// Package common defines shared constants and sentinel errors used across
// client and server layers of vaultblob. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Transfer errors surfaced to callers of the blob engine.
	ErrAccessDenied          = errors.New("access denied")
	ErrNetwork               = errors.New("network error")
	ErrDecryption            = errors.New("decryption failed")
	ErrSessionKeyUnavailable = errors.New("session key unavailable")
	ErrPrecondition          = errors.New("precondition failed")
	ErrNativeUnavailable     = errors.New("native file bridge unavailable")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorBadRequest   = errors.New("bad request")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
