package platformtest

import (
	"testing"
	"time"

	"github.com/altmunch/SocialSchedule-sub011/pkg/limits/ratelimit"
	"github.com/altmunch/SocialSchedule-sub011/pkg/platform"
)

// FastRateLimit paces at one request per millisecond.
var FastRateLimit = ratelimit.Config{RequestsPerWindow: 1000, WindowSeconds: 1}

// TestConfig returns a platform config pointing at baseURL with fast pacing.
func TestConfig(name, baseURL string) platform.Config {
	return platform.Config{
		Name:                name,
		BaseURL:             baseURL,
		AccessToken:         "test-token",
		Timeout:             5 * time.Second,
		RateLimit:           FastRateLimit,
		UsageThreshold:      platform.DefaultUsageThreshold,
		BackoffDelay:        50 * time.Millisecond,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     30 * time.Second,
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertOK fails the test if the result is a failure.
func AssertOK[T any](t *testing.T, res platform.Result[T]) T {
	t.Helper()
	if !res.OK() {
		t.Fatalf("expected success, got failure: %v", res.Failure)
	}
	return res.Data
}

// AssertFailure fails the test unless the result failed with kind and code.
func AssertFailure[T any](t *testing.T, res platform.Result[T], kind platform.FailureKind, code int) *platform.Failure {
	t.Helper()
	if res.OK() {
		t.Fatalf("expected %s failure, got success: %+v", kind, res.Data)
	}
	if res.Failure.Kind != kind {
		t.Errorf("failure kind = %q, want %q (%v)", res.Failure.Kind, kind, res.Failure)
	}
	if code != 0 && res.Failure.Code != code {
		t.Errorf("failure code = %d, want %d (%v)", res.Failure.Code, code, res.Failure)
	}
	return res.Failure
}
