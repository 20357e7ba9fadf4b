// Package observability sets up OpenTelemetry tracing and metrics for
// chat-cleaner. Both are no-ops unless enabled.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// InstrumentationName names the tracer and meter used across the module.
const InstrumentationName = "github.com/chatcleaner/chat-cleaner"

// Config holds the telemetry configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// TraceStdout exports spans to Writer.
	TraceStdout bool
	// MetricsStdout exports otel metrics to Writer every MetricsInterval.
	MetricsStdout   bool
	MetricsInterval time.Duration
	// Writer defaults to os.Stdout.
	Writer io.Writer
}

// Provider owns the tracer and meter providers.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracer         trace.Tracer
	meter          metric.Meter
}

// Init creates the providers described by cfg and installs them globally.
// With nothing enabled it returns no-op tracer and meter.
func Init(ctx context.Context, cfg Config) (*Provider, error) {
	p := &Provider{
		tracer: tracenoop.NewTracerProvider().Tracer(InstrumentationName),
		meter:  metricnoop.NewMeterProvider().Meter(InstrumentationName),
	}
	if !cfg.TraceStdout && !cfg.MetricsStdout {
		return p, nil
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	if cfg.TraceStdout {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("create stdout trace exporter: %w", err)
		}
		p.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		)
		otel.SetTracerProvider(p.tracerProvider)
		p.tracer = p.tracerProvider.Tracer(InstrumentationName)
	}

	if cfg.MetricsStdout {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
		if err != nil {
			_ = p.Shutdown(ctx)
			return nil, fmt.Errorf("create stdout metric exporter: %w", err)
		}
		interval := cfg.MetricsInterval
		if interval <= 0 {
			interval = time.Minute
		}
		p.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval))),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(p.meterProvider)
		p.meter = p.meterProvider.Meter(InstrumentationName)
	}

	return p, nil
}

// Tracer returns the module tracer.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Meter returns the module meter.
func (p *Provider) Meter() metric.Meter {
	return p.meter
}

// Shutdown flushes and stops the providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.tracerProvider != nil {
		errs = append(errs, p.tracerProvider.Shutdown(ctx))
	}
	if p.meterProvider != nil {
		errs = append(errs, p.meterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
