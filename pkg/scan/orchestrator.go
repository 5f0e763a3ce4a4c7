package scan

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/altmunch/SocialSchedule-sub011/pkg/config"
	"github.com/altmunch/SocialSchedule-sub011/pkg/platform"
	"github.com/altmunch/SocialSchedule-sub011/pkg/telemetry/logging"
	"github.com/altmunch/SocialSchedule-sub011/pkg/telemetry/metrics"
	"github.com/altmunch/SocialSchedule-sub011/pkg/telemetry/tracing"
)

// Call names used in span operation names.
const (
	CallPostMetrics  = "get_post_metrics"
	CallUserActivity = "get_user_activity"
)

// MetricRetries counts retried platform calls, labelled by operation.
const MetricRetries = "scan_retries"

// Orchestrator issues platform calls with spans and retries.
type Orchestrator struct {
	collector   *metrics.Collector
	retry       RetryPolicy
	concurrency int
	logger      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRetry sets the retry policy.
func WithRetry(p RetryPolicy) Option {
	return func(o *Orchestrator) { o.retry = p }
}

// WithConcurrency caps how many targets Scan processes at once.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an Orchestrator recording into collector. A nil collector is
// replaced with one backed by an in-memory provider.
func New(collector *metrics.Collector, opts ...Option) *Orchestrator {
	if collector == nil {
		collector = metrics.NewCollector()
	}
	o := &Orchestrator{
		collector:   collector,
		retry:       DefaultRetryPolicy(),
		concurrency: config.DefaultScanConcurrency,
		logger:      slog.Default().With("component", "scan"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Collector returns the collector spans are recorded into.
func (o *Orchestrator) Collector() *metrics.Collector {
	return o.collector
}

// FetchPostMetrics fetches one post's metrics. The call is wrapped in a
// "scan.get_post_metrics" span and every attempt in a
// "<platform>.get_post_metrics" child span. The returned error is a
// *platform.Failure or a context error.
func (o *Orchestrator) FetchPostMetrics(ctx context.Context, adapter platform.Adapter, postID string) (platform.PostMetrics, error) {
	attrs := map[string]any{tracing.AttrPostID: postID}
	return fetch(ctx, o, adapter, CallPostMetrics, attrs, func(ctx context.Context) platform.Result[platform.PostMetrics] {
		return adapter.GetPostMetrics(ctx, postID)
	})
}

// FetchUserActivity fetches the account snapshot of adapter, with the same
// span and retry shape as FetchPostMetrics.
func (o *Orchestrator) FetchUserActivity(ctx context.Context, adapter platform.Adapter) (platform.UserActivity, error) {
	return fetch(ctx, o, adapter, CallUserActivity, nil, func(ctx context.Context) platform.Result[platform.UserActivity] {
		return adapter.GetUserActivity(ctx)
	})
}

func fetch[T any](
	ctx context.Context,
	o *Orchestrator,
	adapter platform.Adapter,
	call string,
	attrs map[string]any,
	do func(context.Context) platform.Result[T],
) (T, error) {
	name := adapter.Name()
	operation := name + "." + call
	ctx = logging.WithPlatform(ctx, name)

	return metrics.WithSpanResult(ctx, o.collector, "scan."+call, func(ctx context.Context, parent *metrics.Span) (T, error) {
		parent.SetAttribute(tracing.AttrPlatform, name)
		for k, v := range attrs {
			parent.SetAttribute(k, v)
		}

		b, hint := o.retry.newBackOff(ctx)
		attempt := 0

		attemptOnce := func() (T, error) {
			attempt++
			data, err := metrics.WithSpanResult(ctx, o.collector, operation, func(ctx context.Context, s *metrics.Span) (T, error) {
				s.SetAttribute(tracing.AttrPlatform, name)
				s.SetAttribute(tracing.AttrAttempt, attempt)
				for k, v := range attrs {
					s.SetAttribute(k, v)
				}

				res := do(ctx)
				if rl := res.RateLimit; rl != nil {
					s.SetAttribute(tracing.AttrRateLimitLimit, rl.Limit)
					s.SetAttribute(tracing.AttrRateLimitRemaining, rl.Remaining)
				}
				if res.OK() {
					return res.Data, nil
				}
				s.SetAttribute(tracing.AttrFailureKind, string(res.Failure.Kind))
				s.SetAttribute(tracing.AttrFailureCode, res.Failure.Code)
				return res.Data, res.Failure
			})
			if err == nil {
				return data, nil
			}

			var f *platform.Failure
			if !errors.As(err, &f) || !f.Retryable() {
				return data, backoff.Permanent(err)
			}
			hint.setHint(f.RetryAfter)
			return data, err
		}

		notify := func(err error, wait time.Duration) {
			o.collector.RecordMetric(metrics.Metric{
				Name:   MetricRetries,
				Type:   metrics.Counter,
				Labels: map[string]string{"operation": operation},
				Value:  1,
			})
			o.logger.WarnContext(ctx, "retrying platform call",
				"operation", operation,
				"attempt", attempt,
				"wait", wait,
				"error", err,
			)
		}

		data, err := backoff.RetryNotifyWithData(attemptOnce, b, notify)
		parent.SetAttribute(tracing.AttrAttempt, attempt)
		return data, err
	})
}
