// Package auth implements the credential pipeline: bearer token and API key
// verification, identity resolution, token revocation, permission checks,
// login throttling, and webhook signature verification.
package auth

import (
	"errors"
	"fmt"
)

// Credential and permission failures. Every failure surfaced by this package
// is one of these sentinels (or RateLimitedError), so callers can map them
// to HTTP statuses with errors.Is and never leak store internals.
var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenRevoked      = errors.New("token revoked")
	ErrInvalidAPIKey     = errors.New("invalid api key")
	ErrAPIKeyRevoked     = errors.New("api key revoked")
	ErrUnknownSubject    = errors.New("unknown subject")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrDuplicateName     = errors.New("an active key with that name already exists")
	ErrKeyNotFound       = errors.New("api key not found")
	ErrMissingSignature  = errors.New("missing signature")
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// RateLimitedError is returned when a login attempt arrives inside the
// throttle window. RetryAfter is the remaining wait in whole seconds,
// rounded up.
type RateLimitedError struct {
	RetryAfter int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %ds", e.RetryAfter)
}
