package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/altmunch/SocialSchedule-sub011/pkg/platform"
)

func TestChecker_Register(t *testing.T) {
	c := New(0)
	c.Register("b", func(context.Context) error { return nil })
	c.Register("a", func(context.Context) error { return nil })
	c.Register("a", func(context.Context) error { return nil })

	if got := c.Names(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Names() = %v", got)
	}
	c.Unregister("a")
	if got := c.Names(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("Names() after Unregister = %v", got)
	}
}

func TestChecker_Readiness(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]CheckFunc
		want   string
	}{
		{name: "no checks", checks: nil, want: StatusReady},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"a": func(context.Context) error { return nil },
				"b": func(context.Context) error { return nil },
			},
			want: StatusReady,
		},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"a": func(context.Context) error { return nil },
				"b": func(context.Context) error { return errors.New("down") },
			},
			want: StatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(time.Second)
			for name, check := range tt.checks {
				c.Register(name, check)
			}

			status := c.Readiness(context.Background())
			if status.Status != tt.want {
				t.Errorf("Status = %q, want %q", status.Status, tt.want)
			}
			if len(status.Checks) != len(tt.checks) {
				t.Errorf("Checks = %v", status.Checks)
			}
		})
	}
}

func TestChecker_Timeout(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	})

	status := c.Readiness(context.Background())
	result := status.Checks["slow"]
	if result.Status != StatusUnhealthy || result.Message != ErrCheckTimeout.Error() {
		t.Errorf("result = %+v", result)
	}
}

func TestAdapterCheck(t *testing.T) {
	healthy := AdapterCheck(func() platform.Health { return platform.Health{IsHealthy: true} })
	if err := healthy(context.Background()); err != nil {
		t.Errorf("healthy adapter: %v", err)
	}

	cause := errors.New("503 from platform")
	unhealthy := AdapterCheck(func() platform.Health {
		return platform.Health{IsHealthy: false, ConsecutiveFailures: 3, LastError: cause}
	})
	err := unhealthy(context.Background())
	if !errors.Is(err, cause) {
		t.Errorf("error = %v, want wrapped cause", err)
	}
}

func TestEndpoints(t *testing.T) {
	c := New(time.Second)
	var unhealthy atomic.Bool
	c.Register("platform:tiktok", AdapterCheck(func() platform.Health {
		return platform.Health{IsHealthy: !unhealthy.Load(), ConsecutiveFailures: 3}
	}))

	mux := http.NewServeMux()
	Mount(mux, c, VersionInfo{Version: "1.2.3", Commit: "abc"})
	server := httptest.NewServer(mux)
	defer server.Close()

	get := func(path string, into any) int {
		t.Helper()
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		return resp.StatusCode
	}

	var live Status
	if code := get("/healthz", &live); code != http.StatusOK || live.Status != StatusOK {
		t.Errorf("/healthz = %d %+v", code, live)
	}

	var ready Status
	if code := get("/readyz", &ready); code != http.StatusOK || ready.Status != StatusReady {
		t.Errorf("/readyz = %d %+v", code, ready)
	}

	unhealthy.Store(true)
	ready = Status{}
	if code := get("/readyz", &ready); code != http.StatusServiceUnavailable || ready.Status != StatusDegraded {
		t.Errorf("/readyz = %d %+v", code, ready)
	}
	if ready.Checks["platform:tiktok"].Message != "3 consecutive failures" {
		t.Errorf("check = %+v", ready.Checks["platform:tiktok"])
	}

	var info VersionInfo
	if code := get("/version", &info); code != http.StatusOK || info.Version != "1.2.3" || info.GoVersion == "" {
		t.Errorf("/version = %d %+v", code, info)
	}

	resp, err := http.Post(server.URL+"/healthz", "text/plain", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST /healthz = %d", resp.StatusCode)
	}
}
