// Package telemetry groups the observability packages of the ingestion core.
//
// # Components
//
//   - metrics: spans, operation metrics, sliding-window percentiles and
//     performance budget alerts, with in-memory and Prometheus providers
//   - tracing: OpenTelemetry export of collector spans
//   - logging: slog setup with credential redaction and span correlation
//   - health: liveness and readiness probes over adapter health
//
// # Usage
//
//	prom := metrics.NewPrometheusProvider(&cfg.Telemetry.Metrics, nil)
//	tracer, _ := tracing.New(&cfg.Telemetry.Tracing)
//	collector := metrics.NewCollector(
//		metrics.WithProvider(prom),
//		metrics.WithProvider(tracer.Bridge()),
//	)
//	collector.SetPerformanceBudgets(metrics.BudgetsFromConfig(cfg.Budgets))
//
//	err := collector.WithSpan(ctx, "tiktok.get_post_metrics", func(ctx context.Context, s *metrics.Span) error {
//		...
//	})
package telemetry
