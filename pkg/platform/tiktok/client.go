package tiktok

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/altmunch/SocialSchedule-sub011/pkg/limits/ratelimit"
	"github.com/altmunch/SocialSchedule-sub011/pkg/platform"
)

const (
	// DefaultBaseURL is the Display API v2 root.
	DefaultBaseURL = "https://open.tiktokapis.com/v2"

	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// DefaultRateLimit is the Display API pacing: 600 requests per minute.
var DefaultRateLimit = ratelimit.Config{RequestsPerWindow: 600, WindowSeconds: 60}

const (
	videoFields = "id,create_time,view_count,like_count,comment_count,share_count"
	userFields  = "follower_count,following_count,video_count"
)

// Adapter is the TikTok Display API adapter.
type Adapter struct {
	*platform.Client

	now func() time.Time
}

// NewAdapter creates a TikTok adapter. Zero BaseURL and RateLimit fields are
// filled with the Display API defaults.
func NewAdapter(cfg platform.Config, opts ...platform.ClientOption) (*Adapter, error) {
	if cfg.Name == "" {
		cfg.Name = platform.TikTok
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

	a.Logger().Info("tiktok adapter initialized",
		"base_url", cfg.BaseURL,
		"rate_limit", cfg.RateLimit.String(),
	)

	return a, nil
}

// HandleRateLimit parses the X-RateLimit-* headers. Usage is
// 1 - remaining/limit.
func (a *Adapter) HandleRateLimit(h http.Header) *platform.RateLimitSnapshot {
	limit, err := strconv.Atoi(h.Get(HeaderLimit))
	if err != nil || limit <= 0 {
		return nil
	}
	remaining, err := strconv.Atoi(h.Get(HeaderRemaining))
	if err != nil {
		return nil
	}

	snap := &platform.RateLimitSnapshot{
		Limit:     limit,
		Remaining: remaining,
	}
	if reset, err := strconv.ParseInt(h.Get(HeaderReset), 10, 64); err == nil && reset > 0 {
		snap.Reset = time.Unix(reset, 0)
	}

	a.ObserveUsage(snap.Usage())

	return snap
}

// GetPostMetrics queries one video by id.
func (a *Adapter) GetPostMetrics(ctx context.Context, postID string) platform.Result[platform.PostMetrics] {
	if postID == "" {
		return platform.Fail[platform.PostMetrics](
			platform.RejectionFailure(a.Name(), http.StatusBadRequest, "video id is required", nil), nil)
	}

	body := videoQuery{}
	body.Filters.VideoIDs = []string{postID}

	res := platform.PostJSON[videoQueryResponse](ctx, a.Client, "/video/query/", url.Values{
		"fields": {videoFields},
	}, body)

	return platform.Then(res, func(r videoQueryResponse) (platform.PostMetrics, *platform.Failure) {
		if f := r.Error.failure(a.Name()); f != nil {
			return platform.PostMetrics{}, f
		}
		for _, v := range r.Data.Videos {
			if v.ID == postID {
				return v.metrics(), nil
			}
		}
		return platform.PostMetrics{}, platform.RejectionFailure(a.Name(), http.StatusNotFound, "video not found", nil)
	})
}

// GetUserActivity fetches the authorized user's counts.
func (a *Adapter) GetUserActivity(ctx context.Context) platform.Result[platform.UserActivity] {
	res := platform.GetJSON[userInfoResponse](ctx, a.Client, "/user/info/", url.Values{
		"fields": {userFields},
	})

	return platform.Then(res, func(r userInfoResponse) (platform.UserActivity, *platform.Failure) {
		if f := r.Error.failure(a.Name()); f != nil {
			return platform.UserActivity{}, f
		}
		u := r.Data.User
		return platform.UserActivity{
			FollowerCount:  u.FollowerCount,
			FollowingCount: u.FollowingCount,
			PostCount:      u.VideoCount,
			LastUpdated:    a.now(),
		}, nil
	})
}
