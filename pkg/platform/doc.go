// Package platform defines the shared contract for social platform adapters.
//
// # Overview
//
// Each supported platform (Instagram Graph API, TikTok Display API, YouTube
// Data API) is wrapped by an adapter in a sub-package. Adapters embed the
// base Client, which provides:
//
//   - A paced request queue (see pkg/limits/ratelimit), one per client
//   - Connection pooling and per-request timeouts
//   - Header-driven adaptive backoff through Hooks.HandleRateLimit
//   - Health bookkeeping (consecutive failures, totals)
//
// # Results
//
// Data calls return a Result rather than (value, error). A Result carries the
// rate limit snapshot of the response on both success and failure, so the
// caller always sees the quota state the platform reported:
//
//	res := adapter.GetUserActivity(ctx)
//	if res.RateLimit != nil {
//	    log.Printf("remaining quota %d/%d", res.RateLimit.Remaining, res.RateLimit.Limit)
//	}
//	activity, err := res.Unwrap()
//
// # Failures
//
// Failure classifies what went wrong:
//
//   - transport: no response (network error, timeout, queue closed)
//   - rejection: non-2xx status or an API-level error in a 2xx body
//   - identity: the account behind the token could not be resolved
//   - parse: a 2xx body could not be decoded
//
// Clients never retry. Failure.Retryable tells the caller whether a retry
// could help (transport, 429 and 5xx).
package platform
