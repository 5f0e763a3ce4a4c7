package scan

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/altmunch/SocialSchedule-sub011/pkg/config"
)

// RetryPolicy controls how retryable platform failures are repeated.
type RetryPolicy struct {
	// MaxAttempts includes the first call. Values below 1 mean 1.
	MaxAttempts int

	// InitialInterval is the wait before the first retry.
	InitialInterval time.Duration

	// MaxInterval caps the exponential wait. It does not cap Retry-After.
	MaxInterval time.Duration

	// Multiplier grows the interval after each retry.
	Multiplier float64
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicyFromConfig(config.RetryConfig{
		MaxAttempts:     config.DefaultScanRetryMaxAttempts,
		InitialInterval: config.DefaultScanRetryInitialInterval,
		MaxInterval:     config.DefaultScanRetryMaxInterval,
		Multiplier:      config.DefaultScanRetryMultiplier,
	})
}

// RetryPolicyFromConfig converts the scan.retry configuration section.
func RetryPolicyFromConfig(cfg config.RetryConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     cfg.MaxAttempts,
		InitialInterval: cfg.InitialInterval,
		MaxInterval:     cfg.MaxInterval,
		Multiplier:      cfg.Multiplier,
	}
}

// newBackOff builds the backoff for one call. The returned hint is fed the
// Retry-After of each failed attempt.
func (p RetryPolicy) newBackOff(ctx context.Context) (backoff.BackOff, *retryAfterBackOff) {
	var base backoff.BackOff = &backoff.StopBackOff{}
	if p.MaxAttempts > 1 {
		exp := backoff.NewExponentialBackOff()
		if p.InitialInterval > 0 {
			exp.InitialInterval = p.InitialInterval
		}
		if p.MaxInterval > 0 {
			exp.MaxInterval = p.MaxInterval
		}
		if p.Multiplier >= 1 {
			exp.Multiplier = p.Multiplier
		}
		// Attempts bound the call, not elapsed time.
		exp.MaxElapsedTime = 0
		base = backoff.WithMaxRetries(exp, uint64(p.MaxAttempts-1))
	}

	hinted := &retryAfterBackOff{next: base}
	return backoff.WithContext(hinted, ctx), hinted
}

// retryAfterBackOff waits at least as long as the platform asked.
type retryAfterBackOff struct {
	next backoff.BackOff

	mu   sync.Mutex
	hint time.Duration
}

func (b *retryAfterBackOff) setHint(d time.Duration) {
	b.mu.Lock()
	b.hint = d
	b.mu.Unlock()
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	d := b.next.NextBackOff()
	if d == backoff.Stop {
		return d
	}

	b.mu.Lock()
	hint := b.hint
	b.hint = 0
	b.mu.Unlock()

	if hint > d {
		return hint
	}
	return d
}

func (b *retryAfterBackOff) Reset() {
	b.next.Reset()
	b.setHint(0)
}
