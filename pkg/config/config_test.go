package config

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("metrics should be enabled by default")
	}
	if cfg.Telemetry.Tracing.Enabled {
		t.Error("tracing should be disabled by default")
	}
	if !cfg.Telemetry.Logging.Redact {
		t.Error("redaction should be enabled by default")
	}
	if cfg.Platforms.TikTok.UsageThreshold != DefaultPlatformUsageThreshold {
		t.Errorf("usage threshold = %v", cfg.Platforms.TikTok.UsageThreshold)
	}
	if cfg.Platforms.YouTube.BackoffDelay != time.Minute {
		t.Errorf("backoff delay = %v", cfg.Platforms.YouTube.BackoffDelay)
	}
	if cfg.Scan.Retry.MaxAttempts != 3 || cfg.Scan.Concurrency != 4 {
		t.Errorf("scan defaults = %+v", cfg.Scan)
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("default configuration should be valid: %v", err)
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := Default()
	cfg.Telemetry.Logging.Level = "debug"
	ApplyDefaults(cfg)
	ApplyDefaults(cfg)

	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("explicit value overwritten: %q", cfg.Telemetry.Logging.Level)
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) != len(DefaultMetricsDurationBuckets()) {
		t.Errorf("buckets = %v", cfg.Telemetry.Metrics.DurationBuckets)
	}
}

func TestParse_KeepsBooleanDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
telemetry:
  logging:
    level: warn
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !cfg.Telemetry.Metrics.Enabled || !cfg.Telemetry.Logging.Redact || !cfg.Telemetry.Tracing.OTLP.Insecure {
		t.Errorf("omitted booleans lost their defaults: %+v", cfg.Telemetry)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("level = %q", cfg.Telemetry.Logging.Level)
	}

	cfg, err = Parse([]byte("telemetry:\n  metrics:\n    enabled: false\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("explicit false ignored")
	}
}

func TestPlatformConfigs(t *testing.T) {
	cfg := Default()
	cfg.Platforms.TikTok = PlatformConfig{
		Enabled:     true,
		Account:     "brand",
		AccessToken: "tok",
		RateLimit:   RateLimitConfig{RequestsPerWindow: 10, WindowSeconds: 1},
	}
	ApplyDefaults(cfg)

	got := cfg.PlatformConfigs()
	if len(got) != 1 {
		t.Fatalf("PlatformConfigs() returned %d configs, want 1", len(got))
	}
	p := got[0]
	if p.Name != "tiktok" || p.Account != "brand" || p.AccessToken != "tok" {
		t.Errorf("config = %+v", p)
	}
	if p.RateLimit.RequestsPerWindow != 10 || p.RateLimit.WindowSeconds != 1 {
		t.Errorf("rate limit = %+v", p.RateLimit)
	}
	if p.UsageThreshold != 0.8 || p.BackoffDelay != time.Minute || p.Timeout != 30*time.Second {
		t.Errorf("defaults not carried: %+v", p)
	}
}

func TestPlatformsConfig_Platform(t *testing.T) {
	var p PlatformsConfig
	for _, name := range PlatformNames {
		if p.Platform(name) == nil {
			t.Errorf("Platform(%q) = nil", name)
		}
	}
	if p.Platform("myspace") != nil {
		t.Error("unknown platform should return nil")
	}
}
