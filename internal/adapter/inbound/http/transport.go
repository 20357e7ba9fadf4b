package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// HTTPTransport is the inbound adapter that serves the bridge API.
type HTTPTransport struct {
	deps          Deps
	server        *http.Server
	addr          string
	adminKeyHash  string
	logger        *slog.Logger
	registry      *prometheus.Registry
	metrics       *Metrics
	healthChecker *HealthChecker
	tracer        trace.Tracer
	listener      net.Listener
}

// Option is a functional option for configuring HTTPTransport.
type Option func(*HTTPTransport)

// WithAddr sets the listen address for the HTTP server.
// Default is "127.0.0.1:8765" (localhost only).
func WithAddr(addr string) Option {
	return func(t *HTTPTransport) {
		t.addr = addr
	}
}

// WithLogger sets the logger for the HTTP transport.
func WithLogger(logger *slog.Logger) Option {
	return func(t *HTTPTransport) {
		t.logger = logger
	}
}

// WithAdminKeyHash sets the argon2id hash admin requests are checked against.
// Empty restricts admin routes to loopback clients.
func WithAdminKeyHash(hash string) Option {
	return func(t *HTTPTransport) {
		t.adminKeyHash = hash
	}
}

// WithMetrics serves metrics from reg and records into m. Without it the
// transport creates its own registry.
func WithMetrics(reg *prometheus.Registry, m *Metrics) Option {
	return func(t *HTTPTransport) {
		t.registry = reg
		t.metrics = m
	}
}

// WithHealthChecker sets the health checker for the /health endpoint.
func WithHealthChecker(hc *HealthChecker) Option {
	return func(t *HTTPTransport) {
		t.healthChecker = hc
	}
}

// WithTracer opens a span for every decision.
func WithTracer(tracer trace.Tracer) Option {
	return func(t *HTTPTransport) {
		if tracer != nil {
			t.tracer = tracer
		}
	}
}

// WithListener serves on an existing listener instead of listening on addr.
func WithListener(ln net.Listener) Option {
	return func(t *HTTPTransport) {
		t.listener = ln
	}
}

// NewHTTPTransport creates the bridge transport.
func NewHTTPTransport(deps Deps, opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		deps:   deps,
		addr:   "127.0.0.1:8765",
		logger: slog.Default(),
		tracer: tracenoop.NewTracerProvider().Tracer(""),
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.registry == nil {
		t.registry = NewRegistry()
		t.metrics = NewMetrics(t.registry)
	}
	if t.healthChecker == nil {
		t.healthChecker = NewHealthChecker(deps.Filter, deps.Journal, "")
	}

	return t
}

// Handler builds the routed handler with its middleware.
//
// Middleware order (outermost first):
//  1. MetricsMiddleware - duration by route (outermost to capture full duration)
//  2. RequestID - Extract/generate request ID and enrich logger
//  3. BodyLimit / AdminAuth
//  4. Handler
func (t *HTTPTransport) Handler() http.Handler {
	h := &handlers{deps: t.deps, metrics: t.metrics, tracer: t.tracer}

	route := func(name string, next http.Handler) http.Handler {
		next = RequestIDMiddleware(t.logger)(next)
		return MetricsMiddleware(t.metrics, name)(next)
	}
	admin := func(name string, fn http.HandlerFunc) http.Handler {
		return route(name, AdminAuth(t.adminKeyHash)(fn))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /v1/events", route("events", BodyLimit(http.HandlerFunc(h.handleEvent))))
	mux.Handle("POST /v1/messages", route("messages", BodyLimit(http.HandlerFunc(h.handleMessage))))

	mux.Handle("POST /admin/reload", admin("admin_reload", h.handleReload))
	mux.Handle("GET /admin/stats", admin("admin_stats", h.handleStats))
	mux.Handle("GET /admin/journal", admin("admin_journal", h.handleJournal))

	mux.Handle("GET /health", t.healthChecker.Handler())
	mux.Handle("GET /metrics", promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{
		Registry: t.registry,
	}))
	return mux
}

// Start begins accepting HTTP connections.
// It blocks until the context is cancelled or an error occurs.
func (t *HTTPTransport) Start(ctx context.Context) error {
	t.server = &http.Server{
		Addr:              t.addr,
		Handler:           t.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		var err error
		if t.listener != nil {
			t.logger.Info("starting HTTP bridge", "addr", t.listener.Addr().String())
			err = t.server.Serve(t.listener)
		} else {
			t.logger.Info("starting HTTP bridge", "addr", t.addr)
			err = t.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		t.logger.Info("context cancelled, shutting down HTTP bridge")
		return t.shutdown()
	case err := <-errCh:
		return err
	}
}

// shutdown performs graceful shutdown of the HTTP server.
func (t *HTTPTransport) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := t.server.Shutdown(ctx); err != nil {
		t.logger.Error("error during server shutdown", "error", err)
		return err
	}

	t.logger.Info("HTTP bridge shutdown complete")
	return nil
}

// Close gracefully shuts down the transport.
func (t *HTTPTransport) Close() error {
	if t.server == nil {
		return nil
	}
	return t.shutdown()
}

// Metrics returns the metrics the transport records into.
func (t *HTTPTransport) Metrics() *Metrics {
	return t.metrics
}
