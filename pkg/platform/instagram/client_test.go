package instagram

import (
	"context"
	"math"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/altmunch/SocialSchedule-sub011/internal/platformtest"
	"github.com/altmunch/SocialSchedule-sub011/pkg/platform"
)

func newTestAdapter(t *testing.T, server *platformtest.MockServer) *Adapter {
	t.Helper()
	a, err := NewAdapter(platformtest.TestConfig(platform.Instagram, server.URL()))
	platformtest.AssertNoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func insights(plays, likes, comments, shares int64, withPlays bool) map[string]interface{} {
	metric := func(name string, v int64) map[string]interface{} {
		return map[string]interface{}{
			"name":   name,
			"period": "lifetime",
			"values": []map[string]interface{}{{"value": v}},
		}
	}
	data := []map[string]interface{}{
		metric("likes", likes),
		metric("comments", comments),
		metric("shares", shares),
	}
	if withPlays {
		data = append(data, metric("plays", plays))
	}
	return map[string]interface{}{"data": data}
}

func TestAdapter_ImplementsInterface(t *testing.T) {
	var _ platform.Adapter = (*Adapter)(nil)
}

func TestNewAdapter_Defaults(t *testing.T) {
	a, err := NewAdapter(platform.Config{AccessToken: "tok"})
	platformtest.AssertNoError(t, err)
	defer a.Close()

	cfg := a.Config()
	if cfg.Name != platform.Instagram || cfg.BaseURL != DefaultBaseURL {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.RateLimit != DefaultRateLimit {
		t.Errorf("RateLimit = %v, want %v", cfg.RateLimit, DefaultRateLimit)
	}
	if cfg.RateLimit.Interval() != 300*time.Millisecond {
		t.Errorf("Interval = %v, want 300ms", cfg.RateLimit.Interval())
	}
}

func TestAdapter_GetPostMetrics_Video(t *testing.T) {
	server := platformtest.NewMockServer()
	defer server.Close()

	server.SetResponse("/1789/insights", platformtest.MockResponse{
		Body: insights(1000, 100, 50, 7, true),
	})
	server.SetResponse("/1789", platformtest.MockResponse{
		Body: map[string]interface{}{"id": "1789", "timestamp": "2024-01-15T10:30:00+0000"},
	})

	a := newTestAdapter(t, server)
	res := a.GetPostMetrics(context.Background(), "1789")
	got := platformtest.AssertOK(t, res)

	if got.ID != "1789" || got.Views != 1000 || got.Likes != 100 || got.Comments != 50 || got.Shares != 7 {
		t.Errorf("unexpected metrics: %+v", got)
	}
	if math.Abs(got.EngagementRate-15.0) > 1e-9 {
		t.Errorf("EngagementRate = %v, want 15", got.EngagementRate)
	}
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	if !got.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, want)
	}

	req, _ := server.LastRequest("/1789/insights")
	if req.Query.Get("metric") != "plays,likes,comments,shares" {
		t.Errorf("metric query = %q", req.Query.Get("metric"))
	}
	if err := platformtest.ExpectHeader(req, "Authorization", "Bearer test-token"); err != nil {
		t.Error(err)
	}
}

func TestAdapter_GetPostMetrics_ImageHasNoViews(t *testing.T) {
	server := platformtest.NewMockServer()
	defer server.Close()

	server.SetResponse("/img/insights", platformtest.MockResponse{
		Body: insights(0, 10, 5, 0, false),
	})
	server.SetResponse("/img", platformtest.MockResponse{
		Body: map[string]interface{}{"id": "img", "timestamp": "2024-01-15T10:30:00+0000"},
	})

	a := newTestAdapter(t, server)
	got := platformtest.AssertOK(t, a.GetPostMetrics(context.Background(), "img"))

	if got.Views != 0 {
		t.Errorf("Views = %d, want 0", got.Views)
	}
	if math.Abs(got.EngagementRate-1500.0) > 1e-9 {
		t.Errorf("EngagementRate = %v, want 1500", got.EngagementRate)
	}
}

func TestAdapter_GetPostMetrics_Failures(t *testing.T) {
	t.Run("insights rejected", func(t *testing.T) {
		server := platformtest.NewMockServer()
		defer server.Close()
		server.SetResponse("/bad/insights", platformtest.MockErrorResponse(http.StatusBadRequest, "Unsupported get request"))

		a := newTestAdapter(t, server)
		f := platformtest.AssertFailure(t, a.GetPostMetrics(context.Background(), "bad"), platform.KindRejection, 400)
		if f.Message != "Unsupported get request" {
			t.Errorf("message = %q", f.Message)
		}
		if server.CountFor("/bad") != 0 {
			t.Error("media lookup must not run after insights fail")
		}
	})

	t.Run("empty id", func(t *testing.T) {
		server := platformtest.NewMockServer()
		defer server.Close()

		a := newTestAdapter(t, server)
		platformtest.AssertFailure(t, a.GetPostMetrics(context.Background(), ""), platform.KindRejection, 400)
		if server.GetRequestCount() != 0 {
			t.Error("no request expected for empty id")
		}
	})

	t.Run("bad timestamp", func(t *testing.T) {
		server := platformtest.NewMockServer()
		defer server.Close()
		server.SetResponse("/ts/insights", platformtest.MockResponse{Body: insights(1, 1, 1, 1, true)})
		server.SetResponse("/ts", platformtest.MockResponse{Body: map[string]interface{}{"timestamp": "yesterday"}})

		a := newTestAdapter(t, server)
		platformtest.AssertFailure(t, a.GetPostMetrics(context.Background(), "ts"), platform.KindParse, 500)
	})
}

func TestAdapter_HandleRateLimit(t *testing.T) {
	tests := []struct {
		name          string
		header        string
		wantNil       bool
		wantRemaining int
		wantDelay     bool
	}{
		{"no header", "", true, 0, false},
		{"malformed", "{not json", true, 0, false},
		{"low usage", `{"call_count":28,"total_time":25,"total_cputime":25}`, false, 72, false},
		{"at threshold", `{"call_count":80,"total_time":10,"total_cputime":10}`, false, 20, false},
		{"cpu above threshold", `{"call_count":10,"total_time":20,"total_cputime":81}`, false, 19, true},
		{"over quota", `{"call_count":120,"total_time":5,"total_cputime":5}`, false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := platformtest.NewMockServer()
			defer server.Close()
			a := newTestAdapter(t, server)

			h := http.Header{}
			if tt.header != "" {
				h.Set(UsageHeader, tt.header)
			}

			snap := a.HandleRateLimit(h)
			if tt.wantNil {
				if snap != nil {
					t.Fatalf("expected nil snapshot, got %+v", snap)
				}
			} else {
				if snap == nil {
					t.Fatal("expected snapshot")
				}
				if snap.Limit != 100 || snap.Remaining != tt.wantRemaining {
					t.Errorf("snapshot = %+v, want limit 100 remaining %d", snap, tt.wantRemaining)
				}
			}

			delays := a.QueueStats().Delays
			if tt.wantDelay && delays != 1 {
				t.Errorf("expected queue to be deferred once, got %d", delays)
			}
			if !tt.wantDelay && delays != 0 {
				t.Errorf("expected no deferral, got %d", delays)
			}
		})
	}
}

func TestAdapter_UsageHeaderDefersSubsequentRequests(t *testing.T) {
	server := platformtest.NewMockServer()
	defer server.Close()

	server.SetResponse("/me", platformtest.MockResponse{
		Body:    map[string]interface{}{"id": "ig1", "username": "acme"},
		Headers: map[string]string{UsageHeader: `{"call_count":95,"total_time":1,"total_cputime":1}`},
	})
	server.SetResponse("/ig1", platformtest.MockResponse{
		Body: map[string]interface{}{"followers_count": 1, "follows_count": 2, "media_count": 3},
	})

	a := newTestAdapter(t, server)
	res := a.GetUserActivity(context.Background())
	platformtest.AssertOK(t, res)

	reqs := server.Requests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	// TestConfig uses a 50ms backoff delay.
	if gap := reqs[1].At.Sub(reqs[0].At); gap < 50*time.Millisecond {
		t.Errorf("second request sent %v after the first, want >= 50ms", gap)
	}
}

func TestAdapter_GetUserActivity(t *testing.T) {
	server := platformtest.NewMockServer()
	defer server.Close()

	server.SetResponse("/me", platformtest.MockResponse{
		Body: map[string]interface{}{"id": "17841400000", "username": "acme"},
	})
	server.SetResponse("/17841400000", platformtest.MockResponse{
		Body: map[string]interface{}{
			"followers_count": 5400,
			"follows_count":   120,
			"media_count":     88,
			"id":              "17841400000",
		},
		Headers: map[string]string{UsageHeader: `{"call_count":10,"total_time":5,"total_cputime":5}`},
	})

	a := newTestAdapter(t, server)
	fixed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	for i := 0; i < 2; i++ {
		res := a.GetUserActivity(context.Background())
		got := platformtest.AssertOK(t, res)
		if got.FollowerCount != 5400 || got.FollowingCount != 120 || got.PostCount != 88 {
			t.Errorf("unexpected activity: %+v", got)
		}
		if !got.LastUpdated.Equal(fixed) {
			t.Errorf("LastUpdated = %v", got.LastUpdated)
		}
		if res.RateLimit == nil || res.RateLimit.Remaining != 90 {
			t.Errorf("RateLimit = %+v, want remaining 90", res.RateLimit)
		}
	}

	if n := server.CountFor("/me"); n != 1 {
		t.Errorf("identity resolved %d times, want 1", n)
	}

	req, _ := server.LastRequest("/17841400000")
	if req.Query.Get("fields") != "followers_count,follows_count,media_count" {
		t.Errorf("fields query = %q", req.Query.Get("fields"))
	}
}

func TestAdapter_IdentityFailureNotCached(t *testing.T) {
	server := platformtest.NewMockServer()
	defer server.Close()

	server.SetResponse("/me", platformtest.MockAuthError())
	server.SetResponse("/ig1", platformtest.MockResponse{
		Body: map[string]interface{}{"followers_count": 1},
	})

	a := newTestAdapter(t, server)

	f := platformtest.AssertFailure(t, a.GetUserActivity(context.Background()), platform.KindIdentity, 401)
	if f.Retryable() {
		t.Error("identity failures must not be retryable")
	}
	if server.CountFor("/ig1") != 0 {
		t.Error("user lookup must not run without identity")
	}

	server.SetResponse("/me", platformtest.MockResponse{Body: map[string]interface{}{"id": "ig1"}})
	platformtest.AssertOK(t, a.GetUserActivity(context.Background()))

	if n := server.CountFor("/me"); n != 2 {
		t.Errorf("identity requested %d times, want 2", n)
	}
}

func TestAdapter_IdentitySingleFlight(t *testing.T) {
	server := platformtest.NewMockServer()
	defer server.Close()

	server.SetResponse("/me", platformtest.MockResponse{
		Body:  map[string]interface{}{"id": "ig1"},
		Delay: 20 * time.Millisecond,
	})
	server.SetResponse("/ig1", platformtest.MockResponse{
		Body: map[string]interface{}{"followers_count": 1},
	})

	a := newTestAdapter(t, server)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res := a.GetUserActivity(context.Background()); !res.OK() {
				t.Errorf("unexpected failure: %v", res.Failure)
			}
		}()
	}
	wg.Wait()

	if n := server.CountFor("/me"); n != 1 {
		t.Errorf("identity requested %d times, want 1", n)
	}
	if n := server.CountFor("/ig1"); n != 5 {
		t.Errorf("user requested %d times, want 5", n)
	}
}
