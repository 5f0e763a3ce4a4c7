package tiktok

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/altmunch/SocialSchedule-sub011/internal/platformtest"
	"github.com/altmunch/SocialSchedule-sub011/pkg/platform"
)

func newTestAdapter(t *testing.T, server *platformtest.MockServer) *Adapter {
	t.Helper()
	a, err := NewAdapter(platformtest.TestConfig(platform.TikTok, server.URL()))
	platformtest.AssertNoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func okError() map[string]interface{} {
	return map[string]interface{}{"code": "ok", "message": "", "log_id": "20240101"}
}

func TestAdapter_ImplementsInterface(t *testing.T) {
	var _ platform.Adapter = (*Adapter)(nil)
}

func TestNewAdapter_Defaults(t *testing.T) {
	a, err := NewAdapter(platform.Config{AccessToken: "tok"})
	platformtest.AssertNoError(t, err)
	defer a.Close()

	cfg := a.Config()
	if cfg.Name != platform.TikTok || cfg.BaseURL != DefaultBaseURL || cfg.RateLimit != DefaultRateLimit {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.RateLimit.Interval() != 100*time.Millisecond {
		t.Errorf("Interval = %v, want 100ms", cfg.RateLimit.Interval())
	}
}

func TestAdapter_GetPostMetrics(t *testing.T) {
	server := platformtest.NewMockServer()
	defer server.Close()

	server.SetResponse("/video/query/", platformtest.MockResponse{
		Body: map[string]interface{}{
			"data": map[string]interface{}{
				"videos": []map[string]interface{}{{
					"id":            "7300",
					"create_time":   1700000000,
					"view_count":    2000,
					"like_count":    250,
					"comment_count": 50,
					"share_count":   12,
				}},
				"cursor":   0,
				"has_more": false,
			},
			"error": okError(),
		},
		Headers: map[string]string{
			HeaderLimit:     "600",
			HeaderRemaining: "590",
			HeaderReset:     "1700000060",
		},
	})

	a := newTestAdapter(t, server)
	res := a.GetPostMetrics(context.Background(), "7300")
	got := platformtest.AssertOK(t, res)

	if got.ID != "7300" || got.Views != 2000 || got.Likes != 250 || got.Comments != 50 || got.Shares != 12 {
		t.Errorf("unexpected metrics: %+v", got)
	}
	if got.EngagementRate != 15.0 {
		t.Errorf("EngagementRate = %v, want 15", got.EngagementRate)
	}
	if !got.Timestamp.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("Timestamp = %v", got.Timestamp)
	}

	if res.RateLimit == nil || res.RateLimit.Limit != 600 || res.RateLimit.Remaining != 590 {
		t.Fatalf("RateLimit = %+v", res.RateLimit)
	}
	if !res.RateLimit.Reset.Equal(time.Unix(1700000060, 0)) {
		t.Errorf("Reset = %v", res.RateLimit.Reset)
	}

	req, _ := server.LastRequest("/video/query/")
	if req.Method != http.MethodPost {
		t.Errorf("method = %s, want POST", req.Method)
	}
	if req.Query.Get("fields") != videoFields {
		t.Errorf("fields = %q", req.Query.Get("fields"))
	}
	expected := map[string]interface{}{
		"filters": map[string]interface{}{"video_ids": []string{"7300"}},
	}
	if err := platformtest.ExpectJSONRequest(req, expected); err != nil {
		t.Error(err)
	}
	if a.QueueStats().Delays != 0 {
		t.Error("low usage must not defer the queue")
	}
}

func TestAdapter_GetPostMetrics_EmptyResult(t *testing.T) {
	server := platformtest.NewMockServer()
	defer server.Close()

	server.SetResponse("/video/query/", platformtest.MockResponse{
		Body: map[string]interface{}{
			"data":  map[string]interface{}{"videos": []interface{}{}},
			"error": okError(),
		},
	})

	a := newTestAdapter(t, server)
	f := platformtest.AssertFailure(t, a.GetPostMetrics(context.Background(), "missing"), platform.KindRejection, 404)
	if f.Retryable() {
		t.Error("missing video must not be retryable")
	}
}

func TestAdapter_GetPostMetrics_OtherVideoOnly(t *testing.T) {
	server := platformtest.NewMockServer()
	defer server.Close()

	server.SetResponse("/video/query/", platformtest.MockResponse{
		Body: map[string]interface{}{
			"data": map[string]interface{}{
				"videos": []map[string]interface{}{{
					"id":         "OTHER",
					"view_count": 100,
					"like_count": 10,
				}},
			},
			"error": okError(),
		},
	})

	a := newTestAdapter(t, server)
	res := a.GetPostMetrics(context.Background(), "WANTED")
	f := platformtest.AssertFailure(t, res, platform.KindRejection, 404)
	if f.Retryable() {
		t.Error("missing video must not be retryable")
	}
	if res.Data.ID != "" {
		t.Errorf("returned metrics for another video: %+v", res.Data)
	}
}

func TestAdapter_APIErrorOn2xx(t *testing.T) {
	server := platformtest.NewMockServer()
	defer server.Close()

	server.SetResponse("/user/info/", platformtest.MockResponse{
		StatusCode: http.StatusOK,
		Body: map[string]interface{}{
			"data": map[string]interface{}{},
			"error": map[string]interface{}{
				"code":    "scope_not_authorized",
				"message": "The user did not authorize the scope required for completing this request.",
			},
		},
	})

	a := newTestAdapter(t, server)
	f := platformtest.AssertFailure(t, a.GetUserActivity(context.Background()), platform.KindRejection, 400)
	if f.Message != "The user did not authorize the scope required for completing this request." {
		t.Errorf("message = %q", f.Message)
	}
}

func TestAdapter_GetUserActivity(t *testing.T) {
	server := platformtest.NewMockServer()
	defer server.Close()

	server.SetResponse("/user/info/", platformtest.MockResponse{
		Body: map[string]interface{}{
			"data": map[string]interface{}{
				"user": map[string]interface{}{
					"follower_count":  10200,
					"following_count": 87,
					"video_count":     143,
				},
			},
			"error": okError(),
		},
	})

	a := newTestAdapter(t, server)
	fixed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	got := platformtest.AssertOK(t, a.GetUserActivity(context.Background()))
	want := platform.UserActivity{FollowerCount: 10200, FollowingCount: 87, PostCount: 143, LastUpdated: fixed}
	if got != want {
		t.Errorf("activity = %+v, want %+v", got, want)
	}

	req, _ := server.LastRequest("/user/info/")
	if req.Query.Get("fields") != userFields {
		t.Errorf("fields = %q", req.Query.Get("fields"))
	}
}

func TestAdapter_HandleRateLimit(t *testing.T) {
	tests := []struct {
		name      string
		headers   map[string]string
		wantNil   bool
		wantDelay bool
	}{
		{"no headers", nil, true, false},
		{"bad limit", map[string]string{HeaderLimit: "abc", HeaderRemaining: "1"}, true, false},
		{"missing remaining", map[string]string{HeaderLimit: "600"}, true, false},
		{"plenty left", map[string]string{HeaderLimit: "600", HeaderRemaining: "500"}, false, false},
		{"exactly at threshold", map[string]string{HeaderLimit: "100", HeaderRemaining: "20"}, false, false},
		{"nearly exhausted", map[string]string{HeaderLimit: "600", HeaderRemaining: "30"}, false, true},
		{"exhausted", map[string]string{HeaderLimit: "600", HeaderRemaining: "0"}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := platformtest.NewMockServer()
			defer server.Close()
			a := newTestAdapter(t, server)

			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}

			snap := a.HandleRateLimit(h)
			if (snap == nil) != tt.wantNil {
				t.Fatalf("snapshot = %+v, wantNil %v", snap, tt.wantNil)
			}
			if got := a.QueueStats().Delays; (got == 1) != tt.wantDelay {
				t.Errorf("delays = %d, wantDelay %v", got, tt.wantDelay)
			}
		})
	}
}

func TestAdapter_RateLimitOnRejection(t *testing.T) {
	server := platformtest.NewMockServer()
	defer server.Close()

	resp := platformtest.MockRateLimitError(1)
	resp.Headers[HeaderLimit] = "600"
	resp.Headers[HeaderRemaining] = "0"
	server.SetResponse("/user/info/", resp)

	a := newTestAdapter(t, server)
	res := a.GetUserActivity(context.Background())
	f := platformtest.AssertFailure(t, res, platform.KindRejection, 429)
	if !f.Retryable() {
		t.Error("429 must be retryable")
	}
	if res.RateLimit == nil || res.RateLimit.Remaining != 0 {
		t.Errorf("RateLimit = %+v, want remaining 0", res.RateLimit)
	}
	if a.QueueStats().Delays != 1 {
		t.Error("exhausted quota must defer the queue")
	}
}
