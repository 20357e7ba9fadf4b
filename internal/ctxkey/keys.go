// Package ctxkey defines shared context key types used across multiple packages.
// This package should have no dependencies on other internal packages to avoid import cycles.
package ctxkey

// LoggerKey is the context key type for the request-scoped logger.
// The HTTP bridge stores a logger carrying request_id under it.
type LoggerKey struct{}

// RequestIDKey is the context key type for the bridge request ID.
type RequestIDKey struct{}
