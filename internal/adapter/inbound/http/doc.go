// Package http provides the HTTP bridge between a game host shim and the
// chat-cleaner filter.
//
// The shim forwards every game event and every outgoing network message it
// intercepts, waits for the decision, and acts on it. If the bridge cannot be
// reached or answers with an error, the shim lets the call through.
//
// # Usage
//
//	transport := http.NewHTTPTransport(deps,
//	    http.WithAddr("127.0.0.1:8765"),
//	    http.WithLogger(logger),
//	    http.WithAdminKeyHash(cfg.Admin.APIKeyHash),
//	)
//	err := transport.Start(ctx)
//
// # Endpoints
//
//	POST /v1/events     - {"name": "...", "dont_broadcast": bool}
//	POST /v1/messages   - {"type": "CCSUsrMsg_RadioText", "debug": "...", "routing": {...}}
//	GET  /health        - component health, 503 when the journal is backed up
//	GET  /metrics       - Prometheus metrics
//	POST /admin/reload  - re-read settings and lists
//	GET  /admin/stats   - decision counters and hot phrases
//	GET  /admin/journal - recent suppressions (?limit=N)
//
// Decision endpoints answer with a bridge.DecisionResponse. For events,
// "result" is the value the host's FireEvent hook must return.
//
// # Security
//
// Admin routes require "Authorization: Bearer <key>" matching the argon2id
// hash in admin.api_key_hash. Without a configured hash they only accept
// loopback clients. Request bodies are limited to 64 KiB.
//
// # Middleware Chain
//
//  1. MetricsMiddleware - request duration by route
//  2. RequestIDMiddleware - X-Request-ID and request-scoped logger
//  3. AdminAuth (admin routes only)
//  4. Handler
package http
