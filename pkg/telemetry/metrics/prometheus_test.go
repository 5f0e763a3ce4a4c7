package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/altmunch/SocialSchedule-sub011/pkg/config"
	"github.com/altmunch/SocialSchedule-sub011/pkg/limits/ratelimit"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:         true,
		Namespace:       "test",
		Subsystem:       "scan",
		DurationBuckets: []float64{0.01, 0.1, 1},
		MaxCardinality:  100,
	}
}

func newTestPrometheus(t *testing.T) (*PrometheusProvider, *prometheus.Registry) {
	t.Helper()
	registry := prometheus.NewRegistry()
	return NewPrometheusProvider(testConfig(), registry), registry
}

func TestPrometheusProvider_OperationMetrics(t *testing.T) {
	p, registry := newTestPrometheus(t)
	clock := newFakeClock()
	c := NewCollector(WithProvider(p), WithClock(clock.Now))

	_ = runFor(c, clock, "tiktok.get_post_metrics", 50*time.Millisecond, nil)
	_ = runFor(c, clock, "tiktok.get_post_metrics", 50*time.Millisecond, classifiedError{})

	if got := testutil.ToFloat64(p.operationResults.WithLabelValues("tiktok.get_post_metrics", "success", "")); got != 1 {
		t.Errorf("success count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.operationResults.WithLabelValues("tiktok.get_post_metrics", "failure", "rejection")); got != 1 {
		t.Errorf("failure count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.spans.WithLabelValues("tiktok.get_post_metrics", "error")); got != 1 {
		t.Errorf("error spans = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.spansInFlight); got != 0 {
		t.Errorf("spans in flight = %v, want 0", got)
	}
	if n, err := testutil.GatherAndCount(registry, "test_scan_operation_duration_seconds"); err != nil || n != 1 {
		t.Errorf("duration series = %d, %v", n, err)
	}
}

func TestPrometheusProvider_BudgetAlertsSubscribed(t *testing.T) {
	p, _ := newTestPrometheus(t)
	c := NewCollector(WithProvider(p))
	c.SetPerformanceBudgets([]PerformanceBudget{{OperationName: "op", MaxDuration: 1}})

	c.RecordMetric(Metric{Name: MetricOperationDuration, Type: Histogram, Labels: map[string]string{"operation": "op"}, Value: 5})

	if got := testutil.ToFloat64(p.budgetAlerts.WithLabelValues("op", AlertMetricDuration)); got != 1 {
		t.Errorf("budget alerts = %v, want 1", got)
	}
}

func TestPrometheusProvider_DynamicMetrics(t *testing.T) {
	p, registry := newTestPrometheus(t)

	p.RecordMetric(Metric{Name: "queue.delay-seconds", Type: Gauge, Labels: map[string]string{"platform": "tiktok"}, Value: 60})
	p.RecordMetric(Metric{Name: "posts_fetched", Type: Counter, Labels: map[string]string{"platform": "tiktok"}, Value: 3})
	p.RecordMetric(Metric{Name: "posts_fetched", Type: Counter, Labels: map[string]string{"platform": "tiktok"}, Value: 2})
	// Type mismatch is dropped.
	p.RecordMetric(Metric{Name: "posts_fetched", Type: Gauge, Labels: map[string]string{"platform": "tiktok"}, Value: 100})

	expected := `
# HELP test_scan_posts_fetched_total Recorded counter posts_fetched
# TYPE test_scan_posts_fetched_total counter
test_scan_posts_fetched_total{platform="tiktok"} 5
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "test_scan_posts_fetched_total"); err != nil {
		t.Error(err)
	}
	if n, err := testutil.GatherAndCount(registry, "test_scan_queue_delay_seconds"); err != nil || n != 1 {
		t.Errorf("sanitized gauge series = %d, %v", n, err)
	}
}

func TestPrometheusProvider_CardinalityLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxCardinality = 2
	registry := prometheus.NewRegistry()
	p := NewPrometheusProvider(cfg, registry)

	for _, op := range []string{"a", "b", "c", "d"} {
		p.RecordMetric(Metric{Name: MetricOperationDuration, Labels: map[string]string{"operation": op}, Value: 1})
	}

	if got := testutil.CollectAndCount(p.operationDuration); got != 3 {
		t.Errorf("series = %d, want 2 admitted plus other", got)
	}
}

func TestPrometheusProvider_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	p := NewPrometheusProvider(cfg, prometheus.NewRegistry())

	c := NewCollector(WithProvider(p))
	_ = c.WithSpan(context.Background(), "op", func(context.Context, *Span) error { return errors.New("x") })

	if got := testutil.CollectAndCount(p.operationResults); got != 0 {
		t.Errorf("disabled provider recorded %d series", got)
	}
}

func TestPrometheusProvider_ObserveQueue(t *testing.T) {
	p, registry := newTestPrometheus(t)
	p.ObserveQueue("tiktok", func() ratelimit.Stats {
		return ratelimit.Stats{Pending: 2, Completed: 5, Failed: 1, Delays: 3}
	})

	expected := `
# HELP test_scan_queue_pending Tasks waiting in the request queue
# TYPE test_scan_queue_pending gauge
test_scan_queue_pending{queue="tiktok"} 2
# HELP test_scan_queue_delays_total Adaptive backoff delays inserted
# TYPE test_scan_queue_delays_total counter
test_scan_queue_delays_total{queue="tiktok"} 3
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected),
		"test_scan_queue_pending", "test_scan_queue_delays_total"); err != nil {
		t.Error(err)
	}
}

func TestPrometheusProvider_Handler(t *testing.T) {
	p, _ := newTestPrometheus(t)
	c := NewCollector(WithProvider(p))
	_ = c.WithSpan(context.Background(), "youtube.get_user_activity", func(context.Context, *Span) error { return nil })

	server := httptest.NewServer(p.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `test_scan_operation_results_total{error_type="",operation="youtube.get_user_activity",result="success"} 1`) {
		t.Errorf("missing operation result in exposition:\n%s", body)
	}
}

func TestNewPrometheusProvider_Defaults(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	p := NewPrometheusProvider(cfg, nil)

	if p.config.Namespace != config.DefaultMetricsNamespace || p.config.Subsystem != config.DefaultMetricsSubsystem {
		t.Errorf("defaults not applied: %+v", p.config)
	}
	if p.config.MaxCardinality != config.DefaultMetricsMaxCardinality || len(p.config.DurationBuckets) == 0 {
		t.Errorf("defaults not applied: %+v", p.config)
	}
	if !reflect.DeepEqual(*cfg, config.MetricsConfig{Enabled: true}) {
		t.Errorf("caller config modified: %+v", cfg)
	}
	if p.Registry() == nil {
		t.Fatal("nil registry")
	}
	if n, err := testutil.GatherAndCount(p.Registry(), "go_goroutines"); err != nil || n != 1 {
		t.Errorf("runtime collectors not registered: %d, %v", n, err)
	}
}

func TestNewPrometheusProvider_NilConfig(t *testing.T) {
	p := NewPrometheusProvider(nil, prometheus.NewRegistry())
	if !p.config.Enabled || p.config.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("config = %+v", p.config)
	}
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)
	if !cl.Allow("a") || !cl.Allow("b") || !cl.Allow("a") {
		t.Fatal("admitted sets rejected")
	}
	if cl.Allow("c") {
		t.Error("set beyond limit admitted")
	}
	if cl.Count() != 2 {
		t.Errorf("Count() = %d", cl.Count())
	}
}

func TestBudgetsFromConfig(t *testing.T) {
	p95 := 900.0
	mem := uint64(1 << 20)
	got := BudgetsFromConfig([]config.BudgetConfig{
		{Operation: "op", MaxDurationMs: 1000, ErrorRateThreshold: 0.2, P95ThresholdMs: &p95, MaxMemoryBytes: &mem},
		{Operation: "other"},
	})
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	b := got[0]
	if b.OperationName != "op" || b.MaxDuration != 1000 || b.ErrorRateThreshold != 0.2 || *b.P95Threshold != 900 || *b.MaxMemoryUsage != 1<<20 {
		t.Errorf("budget = %+v", b)
	}
	if got[1].P95Threshold != nil || got[1].MaxMemoryUsage != nil {
		t.Errorf("optional fields set: %+v", got[1])
	}
}
