package platform

import (
	"time"

	"github.com/altmunch/SocialSchedule-sub011/pkg/limits/ratelimit"
)

// Platform names.
const (
	Instagram = "instagram"
	TikTok    = "tiktok"
	YouTube   = "youtube"
)

// Policy defaults shared by every adapter.
const (
	// DefaultUsageThreshold is the quota usage fraction above which a client
	// defers its queue.
	DefaultUsageThreshold = 0.8

	// DefaultBackoffDelay is how long a client defers its queue once usage
	// crosses the threshold.
	DefaultBackoffDelay = time.Minute
)

// RateLimitSnapshot is the quota state reported by a platform on a response.
type RateLimitSnapshot struct {
	// Limit is the quota ceiling in the platform's own unit.
	Limit int `json:"limit"`

	// Remaining is what is left of Limit.
	Remaining int `json:"remaining"`

	// Reset is when the quota window resets. Zero if the platform does not say.
	Reset time.Time `json:"reset,omitempty"`
}

// Usage returns the consumed fraction of the quota, in [0, 1].
func (s *RateLimitSnapshot) Usage() float64 {
	if s == nil || s.Limit <= 0 {
		return 0
	}
	used := float64(s.Limit-s.Remaining) / float64(s.Limit)
	switch {
	case used < 0:
		return 0
	case used > 1:
		return 1
	}
	return used
}

// PostMetrics is the normalized engagement for one post or video.
type PostMetrics struct {
	ID             string    `json:"id"`
	Views          int64     `json:"views"`
	Likes          int64     `json:"likes"`
	Comments       int64     `json:"comments"`
	Shares         int64     `json:"shares"`
	Timestamp      time.Time `json:"timestamp"`
	EngagementRate float64   `json:"engagement_rate"`
}

// UserActivity is the normalized audience snapshot of the authenticated account.
type UserActivity struct {
	FollowerCount  int64     `json:"follower_count"`
	FollowingCount int64     `json:"following_count"`
	PostCount      int64     `json:"post_count"`
	LastUpdated    time.Time `json:"last_updated"`
}

// EngagementRate returns (likes+comments)/max(views,1)*100.
//
// Views of zero clamp the denominator to 1, so image posts with no view count
// report an inflated rate rather than dividing by zero.
func EngagementRate(likes, comments, views int64) float64 {
	if views < 1 {
		views = 1
	}
	return float64(likes+comments) / float64(views) * 100
}

// NewPostMetrics builds a PostMetrics and fills in its engagement rate.
func NewPostMetrics(id string, views, likes, comments, shares int64, ts time.Time) PostMetrics {
	return PostMetrics{
		ID:             id,
		Views:          views,
		Likes:          likes,
		Comments:       comments,
		Shares:         shares,
		Timestamp:      ts,
		EngagementRate: EngagementRate(likes, comments, views),
	}
}

// Health tracks the request outcomes of one client.
type Health struct {
	// IsHealthy is false after three consecutive server-side or transport failures.
	IsHealthy bool

	// LastCheck is the time of the last recorded request.
	LastCheck time.Time

	// LastError is the most recent failure (nil if the last request succeeded).
	LastError error

	// ConsecutiveFailures counts sequential server-side or transport failures.
	ConsecutiveFailures int

	// LastSuccessfulRequest is the time of the last 2xx response.
	LastSuccessfulRequest time.Time

	// TotalRequests is the number of requests sent.
	TotalRequests int64

	// FailedRequests is the number of requests that did not return 2xx.
	FailedRequests int64
}

// Config configures one platform client.
type Config struct {
	// Name is the platform name (instagram, tiktok, youtube).
	Name string

	// Account optionally labels the account this client acts for.
	Account string

	// BaseURL is the API root, without a trailing slash.
	BaseURL string

	// AccessToken is the OAuth bearer token for the account.
	AccessToken string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// RateLimit paces the client's queue.
	RateLimit ratelimit.Config

	// UsageThreshold is the usage fraction above which the queue is deferred.
	UsageThreshold float64

	// BackoffDelay is how long the queue is deferred once the threshold is crossed.
	BackoffDelay time.Duration

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host.
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool.
	IdleConnTimeout time.Duration
}

// WithDefaults returns a copy of c with zero fields replaced by defaults.
// RateLimit and BaseURL are left alone; adapters supply their own.
func (c Config) WithDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.UsageThreshold == 0 {
		c.UsageThreshold = DefaultUsageThreshold
	}
	if c.BackoffDelay == 0 {
		c.BackoffDelay = DefaultBackoffDelay
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 100
	}
	if c.MaxIdleConnsPerHost == 0 {
		c.MaxIdleConnsPerHost = 10
	}
	if c.IdleConnTimeout == 0 {
		c.IdleConnTimeout = 90 * time.Second
	}
	return c
}

// Validate checks the fields a client cannot work without.
func (c Config) Validate() error {
	if c.Name == "" {
		return &ConfigError{Platform: "unknown", Field: "name", Message: "platform name is required"}
	}
	if c.BaseURL == "" {
		return &ConfigError{Platform: c.Name, Field: "base_url", Message: "base URL is required"}
	}
	if c.AccessToken == "" {
		return &ConfigError{Platform: c.Name, Field: "access_token", Message: "access token is required"}
	}
	if err := c.RateLimit.Validate(); err != nil {
		return &ConfigError{Platform: c.Name, Field: "rate_limit", Message: err.Error()}
	}
	if c.UsageThreshold <= 0 || c.UsageThreshold > 1 {
		return &ConfigError{Platform: c.Name, Field: "usage_threshold", Message: "must be in (0, 1]"}
	}
	if c.BackoffDelay < 0 {
		return &ConfigError{Platform: c.Name, Field: "backoff_delay", Message: "must not be negative"}
	}
	return nil
}
