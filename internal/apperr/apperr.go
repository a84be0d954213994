// Package apperr defines the error kinds every component boundary
// translates collaborator failures into. Callers classify with errors.Is.
package apperr

import "errors"

var (
	// ErrConfiguration marks missing or unusable secrets/credentials.
	// Surfaced as service-unavailable, never as a crash.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound marks an absent or inactive widget or connection.
	// Inactive is deliberately indistinguishable from absent.
	ErrNotFound = errors.New("not found")

	// ErrOAuth marks a non-retryable upstream rejection (bad code,
	// bad credentials, bad app config).
	ErrOAuth = errors.New("oauth rejected")

	// ErrTokenExpired marks a retryable expiry failure; the refresh
	// path is the remedy.
	ErrTokenExpired = errors.New("token expired")

	// ErrDecryption marks a credential that cannot be recovered.
	// The connection must be re-authorized, never retried blindly.
	ErrDecryption = errors.New("decryption failed")

	// ErrUpstream marks a transient upstream fetch failure. The cache
	// is left untouched and the next request may retry.
	ErrUpstream = errors.New("upstream fetch failed")

	// ErrDuplicate marks a uniqueness violation, e.g. the same post URL
	// added twice to one widget.
	ErrDuplicate = errors.New("duplicate")

	// ErrInvalid marks a rejected caller input (missing fields, malformed
	// post URL).
	ErrInvalid = errors.New("invalid input")
)
