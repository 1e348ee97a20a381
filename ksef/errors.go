package ksef

import (
	"fmt"
)

// ValidationError marks malformed or missing caller input. It is always
// surfaced to the caller immediately, before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UpstreamError wraps a failed call to the real KSeF service: a non-2xx
// response, a transport failure or a timeout. Status and body are preserved
// so callers can pass them through.
type UpstreamError struct {
	StatusCode int
	Body       string
	Details    map[string]any
	Err        error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("KSeF returns http status %d err: %v message: %s", e.StatusCode, e.Err, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// CryptoError marks a failure of the public key fetch or the RSA encryption
// step during token based session init. It aborts the whole flow.
type CryptoError struct {
	Op  string
	Err error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("crypto %s: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}
