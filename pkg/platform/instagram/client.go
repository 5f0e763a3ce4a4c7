package instagram

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/altmunch/SocialSchedule-sub011/pkg/limits/ratelimit"
	"github.com/altmunch/SocialSchedule-sub011/pkg/platform"
)

const (
	// DefaultBaseURL is the Graph API root.
	DefaultBaseURL = "https://graph.facebook.com/v18.0"

	// UsageHeader carries the app-level usage percentages.
	UsageHeader = "X-App-Usage"
)

// DefaultRateLimit is the Graph API pacing: 200 calls per hour per user,
// spread over minute windows.
var DefaultRateLimit = ratelimit.Config{RequestsPerWindow: 200, WindowSeconds: 60}

// Adapter is the Instagram Graph API adapter.
type Adapter struct {
	*platform.Client

	now func() time.Time

	// identity is memoized for the adapter lifetime once resolved.
	idMu     sync.Mutex
	identity *account
	idGroup  singleflight.Group
}

// NewAdapter creates an Instagram adapter. Zero BaseURL and RateLimit fields
// are filled with the Graph API defaults.
func NewAdapter(cfg platform.Config, opts ...platform.ClientOption) (*Adapter, error) {
	if cfg.Name == "" {
		cfg.Name = platform.Instagram
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

	a.Logger().Info("instagram adapter initialized",
		"base_url", cfg.BaseURL,
		"rate_limit", cfg.RateLimit.String(),
	)

	return a, nil
}

// HandleRateLimit parses X-App-Usage. The header reports three percentages;
// the highest one drives backoff.
func (a *Adapter) HandleRateLimit(h http.Header) *platform.RateLimitSnapshot {
	raw := h.Get(UsageHeader)
	if raw == "" {
		return nil
	}

	usage, err := parseAppUsage(raw)
	if err != nil {
		a.Logger().Debug("ignoring malformed usage header", "header", UsageHeader, "error", err)
		return nil
	}

	peak := usage.peak()
	remaining := 100 - int(peak)
	if remaining < 0 {
		remaining = 0
	}

	a.ObserveUsage(peak / 100)

	return &platform.RateLimitSnapshot{
		Limit:     100,
		Remaining: remaining,
	}
}

// GetPostMetrics fetches insights and the publish timestamp of a media object.
func (a *Adapter) GetPostMetrics(ctx context.Context, postID string) platform.Result[platform.PostMetrics] {
	if postID == "" {
		return platform.Fail[platform.PostMetrics](
			platform.RejectionFailure(a.Name(), http.StatusBadRequest, "post id is required", nil), nil)
	}

	insights := platform.GetJSON[insightsResponse](ctx, a.Client, "/"+url.PathEscape(postID)+"/insights", url.Values{
		"metric": {"plays,likes,comments,shares"},
	})
	if !insights.OK() {
		return platform.Fail[platform.PostMetrics](insights.Failure, insights.RateLimit)
	}

	media := platform.GetJSON[mediaResponse](ctx, a.Client, "/"+url.PathEscape(postID), url.Values{
		"fields": {"timestamp"},
	})

	return platform.Then(media, func(m mediaResponse) (platform.PostMetrics, *platform.Failure) {
		return transformPostMetrics(a.Name(), postID, insights.Data, m)
	})
}

// GetUserActivity resolves the business account id and fetches its counts.
func (a *Adapter) GetUserActivity(ctx context.Context) platform.Result[platform.UserActivity] {
	acct, failure := a.resolveIdentity(ctx)
	if failure != nil {
		return platform.Fail[platform.UserActivity](failure, nil)
	}

	res := platform.GetJSON[userResponse](ctx, a.Client, "/"+url.PathEscape(acct.ID), url.Values{
		"fields": {"followers_count,follows_count,media_count"},
	})

	return platform.Then(res, func(u userResponse) (platform.UserActivity, *platform.Failure) {
		return platform.UserActivity{
			FollowerCount:  u.FollowersCount,
			FollowingCount: u.FollowsCount,
			PostCount:      u.MediaCount,
			LastUpdated:    a.now(),
		}, nil
	})
}

// resolveIdentity returns the account behind the access token. Concurrent
// callers share one /me request; a failed lookup is not cached.
func (a *Adapter) resolveIdentity(ctx context.Context) (*account, *platform.Failure) {
	a.idMu.Lock()
	if a.identity != nil {
		acct := a.identity
		a.idMu.Unlock()
		return acct, nil
	}
	a.idMu.Unlock()

	v, err, _ := a.idGroup.Do("me", func() (any, error) {
		res := platform.GetJSON[account](ctx, a.Client, "/me", url.Values{
			"fields": {"id,username"},
		})
		if !res.OK() {
			return nil, res.Failure
		}
		if res.Data.ID == "" {
			return nil, platform.RejectionFailure(a.Name(), http.StatusNotFound, "account id missing from /me response", nil)
		}

		acct := res.Data
		a.idMu.Lock()
		a.identity = &acct
		a.idMu.Unlock()

		a.Logger().Info("resolved instagram account", "account_id", acct.ID, "username", acct.Username)
		return &acct, nil
	})
	if err != nil {
		cause, _ := err.(*platform.Failure)
		return nil, platform.IdentityFailure(a.Name(), cause)
	}

	return v.(*account), nil
}
