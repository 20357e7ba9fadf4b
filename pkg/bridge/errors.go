package bridge

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrUnauthorized is returned when the bridge rejects the admin API key.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrServerUnreachable is returned when the bridge cannot be contacted.
	ErrServerUnreachable = errors.New("server unreachable")
)

// BridgeError is returned for any non-2xx bridge response.
type BridgeError struct {
	// StatusCode is the HTTP status.
	StatusCode int
	// Message is the server's error text.
	Message string
	// RequestID is the server-side request ID, if any.
	RequestID string
}

// Error returns the error message.
func (e *BridgeError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("bridge returned %d: %s (request %s)", e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("bridge returned %d: %s", e.StatusCode, e.Message)
}

// Is supports errors.Is(err, ErrUnauthorized) for 401 and 403 responses.
func (e *BridgeError) Is(target error) bool {
	return target == ErrUnauthorized && (e.StatusCode == 401 || e.StatusCode == 403)
}

// ServerUnreachableError is returned when the bridge cannot be contacted and
// the client is not failing open.
type ServerUnreachableError struct {
	// Cause is the underlying transport error.
	Cause error
}

// Error returns a human-readable description of the error.
func (e *ServerUnreachableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("server unreachable: %v", e.Cause)
	}
	return "server unreachable"
}

// Unwrap returns the underlying error cause.
func (e *ServerUnreachableError) Unwrap() error {
	return e.Cause
}

// Is supports errors.Is(err, ErrServerUnreachable).
func (e *ServerUnreachableError) Is(target error) bool {
	return target == ErrServerUnreachable
}
