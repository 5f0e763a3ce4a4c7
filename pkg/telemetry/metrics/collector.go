package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultAlertBuffer is the capacity of the Alerts channel.
const DefaultAlertBuffer = 64

// Provider receives every metric sample and span lifecycle event recorded by
// a Collector. Implementations must be safe for concurrent use.
type Provider interface {
	RecordMetric(m Metric)
	SpanStarted(span *Span)
	SpanFinished(data SpanData)
}

// AlertObserver is implemented by providers that also want budget alerts.
// The collector subscribes them with OnAlert.
type AlertObserver interface {
	ObserveAlert(alert Alert)
}

// AlertHandler is called synchronously for every alert.
type AlertHandler func(Alert)

// Option configures a Collector.
type Option func(*Collector)

// WithProvider adds a provider. Providers are called in the order added.
func WithProvider(p Provider) Option {
	return func(c *Collector) {
		if p != nil {
			c.providers = append(c.providers, p)
		}
	}
}

// WithLogger sets the logger used for alert and panic reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAlertBuffer sets the capacity of the Alerts channel.
func WithAlertBuffer(size int) Option {
	return func(c *Collector) {
		if size > 0 {
			c.alertBuffer = size
		}
	}
}

// WithClock replaces time.Now for span timing and metric timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

// WithWindowSize sets the number of duration samples kept per operation.
func WithWindowSize(size int) Option {
	return func(c *Collector) {
		c.windowSize = size
	}
}

// WithHeapReader replaces the function used to read the current heap size
// for memory budgets.
func WithHeapReader(read func() uint64) Option {
	return func(c *Collector) {
		if read != nil {
			c.heapBytes = read
		}
	}
}

type handlerEntry struct {
	id uint64
	fn AlertHandler
}

// Collector wraps operations in spans, aggregates their durations and
// outcomes, and raises alerts when an operation breaks its performance
// budget.
//
// Collector is thread-safe and can be used concurrently.
type Collector struct {
	providers   []Provider
	logger      *slog.Logger
	now         func() time.Time
	heapBytes   func() uint64
	windowSize  int
	alertBuffer int

	state *State

	budgetMu sync.RWMutex
	budgets  map[string]PerformanceBudget

	handlerMu     sync.RWMutex
	handlers      []handlerEntry
	nextHandlerID uint64

	alerts  chan Alert
	dropped atomic.Int64
}

// NewCollector creates a collector. Without WithProvider a MemoryProvider is
// installed.
//
// Example:
//
//	collector := metrics.NewCollector(
//		metrics.WithProvider(promProvider),
//		metrics.WithLogger(logger),
//	)
//	collector.SetPerformanceBudgets([]metrics.PerformanceBudget{
//		{OperationName: "tiktok.get_post_metrics", MaxDuration: 2000, ErrorRateThreshold: 0.1},
//	})
func NewCollector(opts ...Option) *Collector {
	c := &Collector{
		logger:      slog.Default().With("component", "telemetry.metrics"),
		now:         time.Now,
		heapBytes:   readHeapBytes,
		alertBuffer: DefaultAlertBuffer,
		budgets:     make(map[string]PerformanceBudget),
	}
	for _, opt := range opts {
		opt(c)
	}

	if len(c.providers) == 0 {
		c.providers = []Provider{NewMemoryProvider(0)}
	}
	c.state = NewState(c.windowSize)
	c.alerts = make(chan Alert, c.alertBuffer)

	for _, p := range c.providers {
		if observer, ok := p.(AlertObserver); ok {
			c.OnAlert(observer.ObserveAlert)
		}
	}
	return c
}

// Providers returns the configured providers.
func (c *Collector) Providers() []Provider {
	out := make([]Provider, len(c.providers))
	copy(out, c.providers)
	return out
}

// StartSpan starts a span for operation. A child span inherits the parent's
// trace id; a root span gets a fresh one. The caller must Finish the span;
// providers hold open spans until then.
func (c *Collector) StartSpan(operation string, parent *Span) *Span {
	span := &Span{
		ID:        uuid.NewString(),
		Operation: operation,
		StartTime: c.now(),
		now:       c.now,
		onFinish:  c.spanFinished,
	}
	if parent != nil {
		span.TraceID = parent.TraceID
		span.ParentID = parent.ID
	} else {
		span.TraceID = uuid.NewString()
	}

	for _, p := range c.providers {
		p.SpanStarted(span)
	}
	return span
}

func (c *Collector) spanFinished(data SpanData) {
	for _, p := range c.providers {
		p.SpanFinished(data)
	}
}

// WithSpan runs fn inside a span named operation. The span's parent is the
// span carried by ctx, and fn receives a context carrying the new span.
//
// Whatever the outcome, the span is finished and an operation_duration
// sample followed by an operation_result sample are recorded. fn's error is
// returned unchanged; a panic is re-raised after the bookkeeping.
func (c *Collector) WithSpan(ctx context.Context, operation string, fn func(context.Context, *Span) error) error {
	_, err := WithSpanResult(ctx, c, operation, func(ctx context.Context, span *Span) (struct{}, error) {
		return struct{}{}, fn(ctx, span)
	})
	return err
}

// WithSpanResult is WithSpan for functions that return a value.
func WithSpanResult[T any](ctx context.Context, c *Collector, operation string, fn func(context.Context, *Span) (T, error)) (T, error) {
	span := c.StartSpan(operation, SpanFromContext(ctx))
	spanCtx := ContextWithSpan(ctx, span)

	completed := false
	defer func() {
		if completed {
			return
		}
		r := recover()
		err := fmt.Errorf("panic in %s: %v", operation, r)
		if r == nil {
			err = fmt.Errorf("%s exited without returning", operation)
		} else {
			c.logger.Error("operation panicked",
				"operation", operation,
				"panic", r,
			)
		}
		span.RecordException(err)
		c.completeSpan(span, err)
		if r != nil {
			panic(r)
		}
	}()

	result, err := fn(spanCtx, span)
	completed = true

	if err != nil {
		span.RecordException(err)
	}
	c.completeSpan(span, err)
	return result, err
}

// completeSpan finishes span and records its duration and outcome.
func (c *Collector) completeSpan(span *Span, err error) {
	end := c.now()
	span.FinishAt(end)

	ms := float64(end.Sub(span.StartTime)) / float64(time.Millisecond)
	c.RecordMetric(Metric{
		Name:      MetricOperationDuration,
		Type:      Histogram,
		Labels:    map[string]string{"operation": span.Operation},
		Value:     ms,
		Timestamp: end,
	})

	labels := map[string]string{
		"operation": span.Operation,
		"result":    ResultSuccess,
	}
	if err != nil {
		labels["result"] = ResultFailure
		labels["errorType"] = errorType(err)
	}
	c.RecordMetric(Metric{
		Name:      MetricOperationResult,
		Type:      Counter,
		Labels:    labels,
		Value:     1,
		Timestamp: end,
	})
}

// RecordMetric records a sample. A zero Timestamp is set to the current
// time. operation_duration and operation_result samples also update the
// operation's aggregates, and every operation_duration sample is checked
// against the operation's budget.
func (c *Collector) RecordMetric(m Metric) {
	m = m.clone()
	if m.Timestamp.IsZero() {
		m.Timestamp = c.now()
	}

	for _, p := range c.providers {
		p.RecordMetric(m.clone())
	}

	operation := m.Labels["operation"]
	if operation == "" {
		return
	}

	switch m.Name {
	case MetricOperationDuration:
		obs := c.state.AddDuration(operation, m.Value)
		for _, alert := range c.evaluateBudget(operation, m.Value, obs, m.Timestamp) {
			c.emit(alert)
		}
	case MetricOperationResult:
		c.state.AddResult(operation, m.Labels["result"] != ResultFailure)
	}
}

func (c *Collector) evaluateBudget(operation string, durationMs float64, obs observation, at time.Time) []Alert {
	c.budgetMu.RLock()
	budget, ok := c.budgets[operation]
	c.budgetMu.RUnlock()
	if !ok {
		return nil
	}

	var alerts []Alert
	breach := func(metric string, value, threshold float64) {
		alerts = append(alerts, Alert{
			Type:      AlertTypeBudgetExceeded,
			Operation: operation,
			Metric:    metric,
			Value:     value,
			Threshold: threshold,
			Timestamp: at,
		})
	}

	if budget.MaxDuration > 0 && durationMs > budget.MaxDuration {
		breach(AlertMetricDuration, durationMs, budget.MaxDuration)
	}
	if budget.ErrorRateThreshold > 0 && obs.errorRate > budget.ErrorRateThreshold {
		breach(AlertMetricErrorRate, obs.errorRate, budget.ErrorRateThreshold)
	}
	if budget.P95Threshold != nil && obs.p95 > *budget.P95Threshold {
		breach(AlertMetricP95, obs.p95, *budget.P95Threshold)
	}
	if budget.MaxMemoryUsage != nil {
		if heap := c.heapBytes(); heap > *budget.MaxMemoryUsage {
			breach(AlertMetricMemory, float64(heap), float64(*budget.MaxMemoryUsage))
		}
	}
	return alerts
}

func (c *Collector) emit(alert Alert) {
	c.logger.Warn("performance budget exceeded",
		"operation", alert.Operation,
		"metric", alert.Metric,
		"value", alert.Value,
		"threshold", alert.Threshold,
	)

	c.handlerMu.RLock()
	handlers := make([]handlerEntry, len(c.handlers))
	copy(handlers, c.handlers)
	c.handlerMu.RUnlock()

	for _, h := range handlers {
		h.fn(alert)
	}

	select {
	case c.alerts <- alert:
	default:
		c.dropped.Add(1)
	}
}

// SetPerformanceBudgets replaces the budget table. When several budgets name
// the same operation the last one wins.
func (c *Collector) SetPerformanceBudgets(budgets []PerformanceBudget) {
	table := make(map[string]PerformanceBudget, len(budgets))
	for _, b := range budgets {
		table[b.OperationName] = b
	}

	c.budgetMu.Lock()
	c.budgets = table
	c.budgetMu.Unlock()

	c.logger.Info("performance budgets updated", "count", len(table))
}

// PerformanceBudget returns the budget for operation.
func (c *Collector) PerformanceBudget(operation string) (PerformanceBudget, bool) {
	c.budgetMu.RLock()
	defer c.budgetMu.RUnlock()
	b, ok := c.budgets[operation]
	return b, ok
}

// OnAlert registers handler and returns a function that removes it.
// Handlers run in registration order on the goroutine that recorded the
// breaching sample.
func (c *Collector) OnAlert(handler AlertHandler) (unsubscribe func()) {
	c.handlerMu.Lock()
	c.nextHandlerID++
	id := c.nextHandlerID
	c.handlers = append(c.handlers, handlerEntry{id: id, fn: handler})
	c.handlerMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.handlerMu.Lock()
			defer c.handlerMu.Unlock()
			for i, h := range c.handlers {
				if h.id == id {
					c.handlers = append(c.handlers[:i:i], c.handlers[i+1:]...)
					return
				}
			}
		})
	}
}

// Alerts returns the alert stream. Alerts are dropped, and counted by
// DroppedAlerts, while the channel is full.
func (c *Collector) Alerts() <-chan Alert {
	return c.alerts
}

// DroppedAlerts returns the number of alerts the stream could not hold.
func (c *Collector) DroppedAlerts() int64 {
	return c.dropped.Load()
}

// Stats returns the aggregates for operation.
func (c *Collector) Stats(operation string) OperationStats {
	return c.state.Stats(operation)
}

// Operations returns the names of every operation recorded so far.
func (c *Collector) Operations() []string {
	return c.state.Operations()
}

func readHeapBytes() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}
