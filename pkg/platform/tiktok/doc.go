// Package tiktok implements the TikTok Display API v2 adapter.
//
// Video metrics come from POST /video/query/ with a video_ids filter; the
// account snapshot from GET /user/info/. Both responses wrap an "error"
// object whose code is "ok" on success. Any other code on a 2xx response is
// reported as a rejection with code 400.
//
// Rate limiting is driven by X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset. When less than 20% of the window remains (by default)
// the adapter defers its queue.
package tiktok
