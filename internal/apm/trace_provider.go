// Package apm configures the OTEL tracer provider.
package apm

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

// Provider selects the span exporter backend.
type Provider string

const (
	OTLPProvider    Provider = "OTLP_PROVIDER"
	ConsoleProvider Provider = "CONSOLE_PROVIDER"
	EmptyProvider   Provider = "EMPTY_PROVIDER"
)

// TraceProvider owns the tracer provider lifecycle.
type TraceProvider interface {
	Stop() error
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

type emptyTraceProvider struct{}

func (emptyTraceProvider) Stop() error { return nil }

// TracerOptions holds exporter selection state.
type TracerOptions struct {
	exporter sdktrace.SpanExporter
	name     string
	useEmpty bool
}

// TracerOption configures TracerOptions.
type TracerOption func(*TracerOptions)

// WithProvider selects the exporter backend. Unknown providers fall back to
// the empty provider.
func WithProvider(provider Provider, endpoint string, log *slog.Logger) TracerOption {
	switch provider {
	case OTLPProvider:
		return useOTLP(endpoint)
	case ConsoleProvider:
		return useConsole()
	default:
		log.Warn("trace provider not found, using empty provider", "provider", string(provider))
		return useEmpty()
	}
}

func useEmpty() TracerOption {
	return func(o *TracerOptions) {
		o.useEmpty = true
		o.name = string(EmptyProvider)
	}
}

func useConsole() TracerOption {
	return func(o *TracerOptions) {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			panic(err)
		}
		o.exporter = exp
		o.name = string(ConsoleProvider)
	}
}

func useOTLP(endpoint string) TracerOption {
	return func(o *TracerOptions) {
		exp, err := otlptracegrpc.New(
			context.Background(),
			otlptracegrpc.WithEndpointURL(endpoint),
		)
		if err != nil {
			panic(err)
		}
		o.exporter = exp
		o.name = string(OTLPProvider)
	}
}

// NewTraceProvider builds and globally registers the tracer provider.
func NewTraceProvider(serviceName string, options ...TracerOption) TraceProvider {
	if len(options) == 0 {
		options = []TracerOption{useEmpty()}
	}

	opts := &TracerOptions{}
	for _, opt := range options {
		opt(opts)
	}
	if opts.useEmpty {
		return emptyTraceProvider{}
	}

	rsrc, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("otel.provider", opts.name),
		))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(opts.exporter),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	return &traceProvider{tp: tp}
}

func (p *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.tp.Shutdown(ctx)
}
