package tracing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/altmunch/SocialSchedule-sub011/pkg/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// InstrumentationName is the name of the OpenTelemetry tracer used for
// bridged spans.
const InstrumentationName = "github.com/altmunch/SocialSchedule-sub011"

// Option configures a Tracer.
type Option func(*options)

type options struct {
	exporter       sdktrace.SpanExporter
	processors     []sdktrace.SpanProcessor
	serviceVersion string
	setGlobal      bool
}

// WithExporter replaces the OTLP exporter. Spans are still batched.
func WithExporter(exporter sdktrace.SpanExporter) Option {
	return func(o *options) { o.exporter = exporter }
}

// WithSpanProcessor registers an additional span processor, such as a
// tracetest.SpanRecorder.
func WithSpanProcessor(p sdktrace.SpanProcessor) Option {
	return func(o *options) { o.processors = append(o.processors, p) }
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(o *options) { o.serviceVersion = version }
}

// WithGlobal installs the tracer provider and W3C propagators as the
// process-wide OpenTelemetry defaults.
func WithGlobal() Option {
	return func(o *options) { o.setGlobal = true }
}

// Tracer owns the OpenTelemetry tracer provider that bridged spans are
// exported through.
type Tracer struct {
	config   *config.TracingConfig
	provider trace.TracerProvider
	sdk      *sdktrace.TracerProvider
	enabled  bool
}

// New creates a Tracer. When tracing is disabled the provider is a noop and
// nothing is exported.
//
// The tracer must be shut down when no longer needed:
//
//	defer tracer.Shutdown(context.Background())
func New(cfg *config.TracingConfig, opts ...Option) (*Tracer, error) {
	if cfg == nil {
		return nil, errors.New("tracing config is nil")
	}

	o := options{serviceVersion: "dev"}
	for _, opt := range opts {
		opt(&o)
	}

	t := &Tracer{config: cfg, enabled: cfg.Enabled}
	if !cfg.Enabled {
		t.provider = noop.NewTracerProvider()
		return t, nil
	}

	sampler, err := createSampler(cfg.Sampler, cfg.SampleRatio)
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler: %w", err)
	}

	exporter := o.exporter
	if exporter == nil {
		exporter, err = createOTLPExporter(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create exporter: %w", err)
		}
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(o.serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	}
	for _, p := range o.processors {
		providerOpts = append(providerOpts, sdktrace.WithSpanProcessor(p))
	}
	t.sdk = sdktrace.NewTracerProvider(providerOpts...)
	t.provider = t.sdk

	if o.setGlobal {
		otel.SetTracerProvider(t.sdk)
		otel.SetTextMapPropagator(
			propagation.NewCompositeTextMapPropagator(
				propagation.TraceContext{},
				propagation.Baggage{},
			),
		)
	}

	slog.Default().Info("tracing enabled",
		"component", "telemetry.tracing",
		"endpoint", cfg.Endpoint,
		"sampler", cfg.Sampler,
		"sample_ratio", cfg.SampleRatio,
	)

	return t, nil
}

// Provider returns the underlying tracer provider.
func (t *Tracer) Provider() trace.TracerProvider {
	return t.provider
}

// Bridge returns a metrics provider exporting collector spans through this
// tracer.
func (t *Tracer) Bridge() *Bridge {
	return NewBridge(t.provider)
}

// Enabled returns whether tracing is enabled.
func (t *Tracer) Enabled() bool {
	return t.enabled
}

// ForceFlush exports all finished spans without shutting down.
func (t *Tracer) ForceFlush(ctx context.Context) error {
	if t.sdk == nil {
		return nil
	}
	return t.sdk.ForceFlush(ctx)
}

// Shutdown flushes any pending spans and shuts down the tracer.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.sdk == nil {
		return nil
	}
	return t.sdk.Shutdown(ctx)
}

// createOTLPExporter creates an OTLP gRPC exporter. The connection is
// established lazily so an unreachable collector does not block startup.
func createOTLPExporter(cfg *config.TracingConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithDialOption(grpc.WithUserAgent("socialschedule")),
	}

	if cfg.OTLP.Insecure {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
	}
	if cfg.OTLP.Timeout > 0 {
		opts = append(opts, otlptracegrpc.WithTimeout(cfg.OTLP.Timeout))
	}

	exporter, err := otlptrace.New(context.Background(), otlptracegrpc.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}
	return exporter, nil
}
