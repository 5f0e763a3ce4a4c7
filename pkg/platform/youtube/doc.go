// Package youtube implements the YouTube Data API v3 adapter.
//
// Video metrics come from GET /videos?part=statistics,snippet and the
// channel snapshot from GET /channels?part=statistics&mine=true. Counts are
// decimal strings. The API does not expose shares or followed channels, so
// those fields are always 0.
//
// The Data API sends no usage headers. Quota exhaustion arrives as a 403
// with reason quotaExceeded and is returned as a non-retryable rejection.
package youtube
