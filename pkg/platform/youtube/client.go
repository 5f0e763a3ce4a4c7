package youtube

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/altmunch/SocialSchedule-sub011/pkg/limits/ratelimit"
	"github.com/altmunch/SocialSchedule-sub011/pkg/platform"
)

// DefaultBaseURL is the Data API v3 root.
const DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

// DefaultRateLimit is the Data API pacing: 10000 requests per minute.
var DefaultRateLimit = ratelimit.Config{RequestsPerWindow: 10000, WindowSeconds: 60}

// Adapter is the YouTube Data API adapter.
type Adapter struct {
	*platform.Client

	now func() time.Time
}

// NewAdapter creates a YouTube adapter. Zero BaseURL and RateLimit fields
// are filled with the Data API defaults.
func NewAdapter(cfg platform.Config, opts ...platform.ClientOption) (*Adapter, error) {
	if cfg.Name == "" {
		cfg.Name = platform.YouTube
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RateLimit == (ratelimit.Config{}) {
		cfg.RateLimit = DefaultRateLimit
	}

	a := &Adapter{now: time.Now}
	client, err := platform.NewClient(cfg, a, opts...)
	if err != nil {
		return nil, err
	}
	a.Client = client

	a.Logger().Info("youtube adapter initialized",
		"base_url", cfg.BaseURL,
		"rate_limit", cfg.RateLimit.String(),
	)

	return a, nil
}

// HandleRateLimit always returns nil. The Data API reports quota only
// through 403 quotaExceeded rejections, which surface as ordinary failures.
func (a *Adapter) HandleRateLimit(http.Header) *platform.RateLimitSnapshot {
	return nil
}

// GetPostMetrics fetches statistics and the publish time of one video.
func (a *Adapter) GetPostMetrics(ctx context.Context, postID string) platform.Result[platform.PostMetrics] {
	if postID == "" {
		return platform.Fail[platform.PostMetrics](
			platform.RejectionFailure(a.Name(), http.StatusBadRequest, "video id is required", nil), nil)
	}

	res := platform.GetJSON[videoListResponse](ctx, a.Client, "/videos", url.Values{
		"part": {"statistics,snippet"},
		"id":   {postID},
	})

	return platform.Then(res, func(r videoListResponse) (platform.PostMetrics, *platform.Failure) {
		if len(r.Items) == 0 {
			return platform.PostMetrics{}, platform.RejectionFailure(a.Name(), http.StatusNotFound, "video not found", nil)
		}
		return transformVideo(a.Name(), r.Items[0])
	})
}

// GetUserActivity fetches statistics of the authorized channel.
func (a *Adapter) GetUserActivity(ctx context.Context) platform.Result[platform.UserActivity] {
	res := platform.GetJSON[channelListResponse](ctx, a.Client, "/channels", url.Values{
		"part": {"statistics"},
		"mine": {"true"},
	})

	return platform.Then(res, func(r channelListResponse) (platform.UserActivity, *platform.Failure) {
		if len(r.Items) == 0 {
			return platform.UserActivity{}, platform.IdentityFailure(a.Name(),
				platform.RejectionFailure(a.Name(), http.StatusNotFound, "no channel for the authorized account", nil))
		}
		return transformChannel(a.Name(), r.Items[0], a.now())
	})
}
