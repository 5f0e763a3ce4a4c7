// Package scan drives platform adapters for one scan cycle.
//
// An Orchestrator wraps every platform call in collector spans: a
// "scan.<call>" parent and one "<platform>.<call>" child per attempt, so
// budget alerts and percentiles are tracked per platform operation. Retryable
// failures (transport errors, 429 and 5xx) are repeated with exponential
// backoff, waiting at least the platform's Retry-After. Identity failures and
// other 4xx responses are returned at once.
//
// Scan processes a list of targets concurrently and collects every outcome
// in a Report. Deciding when to run a cycle is left to the caller.
package scan
