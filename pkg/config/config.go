package config

import "time"

// Config is the root configuration structure for SocialSchedule ingestion.
// It contains the platform credentials, performance budgets, scan targets
// and telemetry settings.
type Config struct {
	// Platforms contains one section per supported social platform.
	Platforms PlatformsConfig `yaml:"platforms"`

	// Budgets declares performance budgets per wrapped operation.
	Budgets []BudgetConfig `yaml:"budgets"`

	// Scan contains the scan targets, schedule and retry policy.
	Scan ScanConfig `yaml:"scan"`

	// Telemetry contains configuration for logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// PlatformsConfig contains the per-platform adapter settings.
type PlatformsConfig struct {
	Instagram PlatformConfig `yaml:"instagram"`
	TikTok    PlatformConfig `yaml:"tiktok"`
	YouTube   PlatformConfig `yaml:"youtube"`
}

// PlatformConfig configures one platform adapter.
type PlatformConfig struct {
	// Enabled controls whether an adapter is created for the platform.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Account is an optional label distinguishing several accounts.
	Account string `yaml:"account"`

	// BaseURL overrides the platform API endpoint.
	// Default: the adapter's public endpoint
	BaseURL string `yaml:"base_url"`

	// AccessToken is the OAuth access token sent as a Bearer credential.
	// Prefer SOCIALSCHEDULE_<PLATFORM>_ACCESS_TOKEN over storing it in the file.
	AccessToken string `yaml:"access_token"`

	// Timeout bounds a single HTTP call.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// RateLimit is the quota window the request queue paces against.
	// Default: the adapter's documented quota
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// UsageThreshold is the reported quota usage (0..1] above which the
	// adapter defers its queue.
	// Default: 0.8
	UsageThreshold float64 `yaml:"usage_threshold"`

	// BackoffDelay is how long the queue is deferred once usage crosses
	// UsageThreshold.
	// Default: 1m
	BackoffDelay time.Duration `yaml:"backoff_delay"`
}

// RateLimitConfig is a requests-per-window quota.
type RateLimitConfig struct {
	RequestsPerWindow int `yaml:"requests_per_window"`
	WindowSeconds     int `yaml:"window_seconds"`
}

// BudgetConfig is the file form of a performance budget.
type BudgetConfig struct {
	// Operation is the span name the budget applies to,
	// e.g. "tiktok.get_post_metrics".
	Operation string `yaml:"operation"`

	// MaxDurationMs is the per-call duration ceiling in milliseconds.
	MaxDurationMs float64 `yaml:"max_duration_ms"`

	// ErrorRateThreshold is the failure ratio ceiling (0..1).
	ErrorRateThreshold float64 `yaml:"error_rate_threshold"`

	// P95ThresholdMs is an optional 95th percentile ceiling.
	P95ThresholdMs *float64 `yaml:"p95_threshold_ms"`

	// MaxMemoryBytes is an optional heap size ceiling.
	MaxMemoryBytes *uint64 `yaml:"max_memory_bytes"`
}

// ScanConfig configures the scan orchestrator.
type ScanConfig struct {
	// Schedule is a standard five-field cron expression. When empty,
	// "socialschedule scan" runs one cycle and exits.
	Schedule string `yaml:"schedule"`

	// Concurrency caps the number of targets scanned at once.
	// Default: 4
	Concurrency int `yaml:"concurrency"`

	// Retry controls retries of retryable platform failures.
	Retry RetryConfig `yaml:"retry"`

	// Targets lists what to fetch per platform account.
	Targets []TargetConfig `yaml:"targets"`
}

// RetryConfig is an exponential backoff policy.
type RetryConfig struct {
	// MaxAttempts includes the first call.
	// Default: 3
	MaxAttempts int `yaml:"max_attempts"`

	// InitialInterval is the wait before the first retry.
	// Default: 1s
	InitialInterval time.Duration `yaml:"initial_interval"`

	// MaxInterval caps the wait between retries.
	// Default: 30s
	MaxInterval time.Duration `yaml:"max_interval"`

	// Multiplier grows the interval after each retry.
	// Default: 2.0
	Multiplier float64 `yaml:"multiplier"`
}

// TargetConfig names an account and the posts to fetch from it.
type TargetConfig struct {
	// Platform is "instagram", "tiktok" or "youtube".
	Platform string `yaml:"platform"`

	// Account selects the platform section account label, if any.
	Account string `yaml:"account"`

	// Activity also fetches the account's follower snapshot.
	Activity bool `yaml:"activity"`

	// Posts are fetched highest priority first.
	Posts []PostConfig `yaml:"posts"`
}

// PostConfig is a post id with a fetch priority.
type PostConfig struct {
	ID       string `yaml:"id"`
	Priority int    `yaml:"priority"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// Redact masks access tokens and authorization values in log output.
	// Default: true
	Redact bool `yaml:"redact"`

	// RedactKeys are additional attribute keys whose values are masked.
	RedactKeys []string `yaml:"redact_keys"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether samples are mirrored into Prometheus.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Address is the listen address of the metrics endpoint.
	// Default: ":9090"
	Address string `yaml:"address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "socialschedule"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "ingest"
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets defines histogram buckets for operation duration (seconds).
	// Default: [0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30]
	DurationBuckets []float64 `yaml:"duration_buckets"`

	// MaxCardinality caps distinct label sets before values fold into "other".
	// Default: 10000
	MaxCardinality int `yaml:"max_cardinality"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported over OTLP.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "socialschedule"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// Platform returns the section for name, or nil for an unknown platform.
func (p *PlatformsConfig) Platform(name string) *PlatformConfig {
	switch name {
	case "instagram":
		return &p.Instagram
	case "tiktok":
		return &p.TikTok
	case "youtube":
		return &p.YouTube
	default:
		return nil
	}
}

// PlatformNames lists the platform sections in a stable order.
var PlatformNames = []string{"instagram", "tiktok", "youtube"}
