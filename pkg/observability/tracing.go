// Package observability wires tracing, progress logging and process memory
// reporting for an export run.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ajitpratap0/oraexport"

// TracingConfig contains tracing configuration
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	// Writer receives finished spans as JSON; nil means stderr
	Writer      io.Writer
	PrettyPrint bool
}

// ShutdownFunc flushes and stops a tracer provider
type ShutdownFunc func(ctx context.Context) error

// InitTracing installs a global SDK tracer provider exporting through
// stdouttrace. Until it is called every span is a no-op.
func InitTracing(ctx context.Context, config TracingConfig) (ShutdownFunc, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	w := config.Writer
	if w == nil {
		w = os.Stderr
	}
	opts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if config.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// Tracer returns the package tracer from the global provider
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Span wraps a trace span with attribute batching
type Span struct {
	span       trace.Span
	attributes []attribute.KeyValue
}

// StartSpan starts a span named after a pipeline stage
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	ctx, span := Tracer().Start(ctx, name)
	return ctx, &Span{span: span}
}

// SetAttribute adds an attribute, applied when the span ends
func (s *Span) SetAttribute(key string, value interface{}) {
	var attr attribute.KeyValue

	switch v := value.(type) {
	case string:
		attr = attribute.String(key, v)
	case int:
		attr = attribute.Int(key, v)
	case int64:
		attr = attribute.Int64(key, v)
	case float64:
		attr = attribute.Float64(key, v)
	case bool:
		attr = attribute.Bool(key, v)
	default:
		attr = attribute.String(key, fmt.Sprintf("%v", v))
	}

	s.attributes = append(s.attributes, attr)
}

// End finishes the span, marking it failed when err is non-nil
func (s *Span) End(err error) {
	if len(s.attributes) > 0 {
		s.span.SetAttributes(s.attributes...)
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}

// SpanContext returns the underlying span context
func (s *Span) SpanContext() trace.SpanContext {
	return s.span.SpanContext()
}
