package tracing

import (
	"context"
	"sync"

	"github.com/altmunch/SocialSchedule-sub011/pkg/telemetry/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Bridge is a metrics.Provider that mirrors collector spans as OpenTelemetry
// spans. Start and end timestamps are copied from the collector span, and a
// child is started under its parent's OpenTelemetry context so the tree is
// preserved.
//
// Every span started through the collector must be finished. Open spans are
// held until SpanFinished; once MaxOpenSpans are open, further spans are not
// bridged and are counted by Dropped.
type Bridge struct {
	tracer trace.Tracer

	mu      sync.Mutex
	spans   map[string]bridgedSpan
	maxOpen int
	dropped int64
}

// MaxOpenSpans bounds the spans a Bridge holds between start and finish.
const MaxOpenSpans = 10000

type bridgedSpan struct {
	ctx  context.Context
	span trace.Span
}

var _ metrics.Provider = (*Bridge)(nil)

// NewBridge creates a bridge exporting through tp.
func NewBridge(tp trace.TracerProvider) *Bridge {
	return &Bridge{
		tracer:  tp.Tracer(InstrumentationName),
		spans:   make(map[string]bridgedSpan),
		maxOpen: MaxOpenSpans,
	}
}

// RecordMetric implements metrics.Provider. Metrics are not exported as
// traces.
func (b *Bridge) RecordMetric(metrics.Metric) {}

// SpanStarted implements metrics.Provider.
func (b *Bridge) SpanStarted(s *metrics.Span) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.spans) >= b.maxOpen {
		b.dropped++
		return
	}

	parent := context.Background()
	if s.ParentID != "" {
		if p, ok := b.spans[s.ParentID]; ok {
			parent = p.ctx
		}
	}

	ctx, span := b.tracer.Start(parent, s.Operation,
		trace.WithTimestamp(s.StartTime),
		trace.WithAttributes(
			attribute.String(AttrSpanID, s.ID),
			attribute.String(AttrTraceID, s.TraceID),
		),
	)
	b.spans[s.ID] = bridgedSpan{ctx: ctx, span: span}
}

// SpanFinished implements metrics.Provider.
func (b *Bridge) SpanFinished(data metrics.SpanData) {
	b.mu.Lock()
	entry, ok := b.spans[data.ID]
	delete(b.spans, data.ID)
	b.mu.Unlock()
	if !ok {
		return
	}

	span := entry.span
	span.SetAttributes(Attributes(data.Attributes)...)
	for _, ev := range data.Events {
		span.AddEvent(ev.Name,
			trace.WithTimestamp(ev.Timestamp),
			trace.WithAttributes(Attributes(ev.Attributes)...),
		)
	}

	switch data.Status {
	case metrics.StatusError:
		span.SetStatus(codes.Error, data.StatusMessage)
	case metrics.StatusOK:
		span.SetStatus(codes.Ok, "")
	}

	span.End(trace.WithTimestamp(data.EndTime))
}

// Open returns the number of spans started but not yet finished.
func (b *Bridge) Open() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.spans)
}

// Dropped returns the number of spans not bridged because MaxOpenSpans
// were already open.
func (b *Bridge) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// SpanContext returns the OpenTelemetry span context of an open collector
// span.
func (b *Bridge) SpanContext(spanID string) (trace.SpanContext, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.spans[spanID]
	if !ok {
		return trace.SpanContext{}, false
	}
	return entry.span.SpanContext(), true
}
