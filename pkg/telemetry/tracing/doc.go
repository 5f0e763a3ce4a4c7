// Package tracing exports collector spans through OpenTelemetry.
//
// The metrics collector keeps its own span model. A Bridge registered as a
// metrics.Provider opens an OpenTelemetry span for every collector span,
// under its parent's context and with the same start time, and ends it with
// the collector's attributes, events, status and end time.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(version))
//	if err != nil {
//		return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	collector := metrics.NewCollector(metrics.WithProvider(tracer.Bridge()))
//
// # Sampling Strategies
//
// Three sampling strategies are supported, each wrapped in ParentBased:
//   - always: Sample all traces (development/debugging)
//   - never: Sample no traces
//   - ratio: Sample a fraction of traces by trace id
//
// # Exporters
//
// Spans are batched to an OTLP gRPC collector. Tests inject an in-memory
// exporter with WithExporter or a tracetest.SpanRecorder with
// WithSpanProcessor.
package tracing
