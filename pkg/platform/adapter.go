package platform

import (
	"context"
	"net/http"
)

// Adapter is the contract every platform integration implements. The set of
// adapters is closed: instagram, tiktok and youtube.
//
// Every data call goes through the adapter's own rate-limited queue, so calls
// made concurrently on one adapter are serialized and paced. Calls never
// retry; the caller decides based on Failure.Retryable.
//
// Example usage:
//
//	adapter, err := registry.New(cfg)
//	if err != nil {
//	    return err
//	}
//	defer adapter.Close()
//
//	res := adapter.GetPostMetrics(ctx, "17895695668004550")
//	if !res.OK() {
//	    return res.Err()
//	}
//	fmt.Println(res.Data.EngagementRate)
type Adapter interface {
	// Name returns the platform name.
	Name() string

	// AuthHeaders returns the headers that authenticate a request. It does
	// no I/O.
	AuthHeaders() map[string]string

	// HandleRateLimit inspects response headers, defers the client's queue
	// when quota usage is above the configured threshold and returns the
	// parsed snapshot, or nil if the headers carry none.
	HandleRateLimit(h http.Header) *RateLimitSnapshot

	// GetPostMetrics fetches engagement for one post or video.
	GetPostMetrics(ctx context.Context, postID string) Result[PostMetrics]

	// GetUserActivity fetches the audience snapshot of the authenticated account.
	GetUserActivity(ctx context.Context) Result[UserActivity]

	// Health returns request outcome bookkeeping for the adapter's client.
	Health() Health

	// Close stops the adapter's queue and releases pooled connections.
	Close() error
}

// Hooks are the adapter-specific parts of a request the base Client calls back
// into.
type Hooks interface {
	AuthHeaders() map[string]string
	HandleRateLimit(h http.Header) *RateLimitSnapshot
}
