// Package metrics records the performance of outbound platform operations.
//
// # Overview
//
// A Collector wraps each operation in a Span, records how long it took and
// whether it failed, and keeps a sliding window of the last 100 durations per
// operation from which p50/p95/p99 are computed. Every duration sample is
// checked against the operation's PerformanceBudget; each breached dimension
// (duration, error rate, p95, heap size) raises one Alert.
//
// Samples and span lifecycle events are forwarded to one or more Providers:
//
//   - MemoryProvider: bounded in-memory buffers, used by default and in tests
//   - PrometheusProvider: mirrors samples into a Prometheus registry
//   - tracing.Bridge: exports spans through OpenTelemetry
//
// # Usage
//
//	collector := metrics.NewCollector(metrics.WithProvider(provider))
//	collector.SetPerformanceBudgets(budgets)
//	unsubscribe := collector.OnAlert(func(a metrics.Alert) {
//		logger.Warn("budget exceeded", "operation", a.Operation, "metric", a.Metric)
//	})
//	defer unsubscribe()
//
//	err := collector.WithSpan(ctx, "tiktok.get_post_metrics", func(ctx context.Context, span *metrics.Span) error {
//		span.SetAttribute("post.id", id)
//		return fetch(ctx)
//	})
//
// # Recorded Samples
//
// WithSpan records, in order:
//
//   - operation_duration (Histogram, milliseconds) labelled {operation}
//   - operation_result (Counter) labelled {operation, result, errorType}
//
// The error rate an alert reports therefore covers outcomes recorded before
// the sample being evaluated.
//
// # Thread Safety
//
// Collector, State and all providers are safe for concurrent use. Alert
// handlers run synchronously on the recording goroutine and must not block.
package metrics
