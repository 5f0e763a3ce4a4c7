package config

import "time"

// Default values for configuration fields.
const (
	// Platform defaults
	DefaultPlatformTimeout        = 30 * time.Second
	DefaultPlatformUsageThreshold = 0.8
	DefaultPlatformBackoffDelay   = time.Minute

	// Scan defaults
	DefaultScanConcurrency          = 4
	DefaultScanRetryMaxAttempts     = 3
	DefaultScanRetryInitialInterval = time.Second
	DefaultScanRetryMaxInterval     = 30 * time.Second
	DefaultScanRetryMultiplier      = 2.0

	// Telemetry defaults
	DefaultLoggingLevel          = "info"
	DefaultLoggingFormat         = "json"
	DefaultLoggingRedact         = true
	DefaultMetricsEnabled        = true
	DefaultMetricsAddress        = ":9090"
	DefaultMetricsPath           = "/metrics"
	DefaultMetricsNamespace      = "socialschedule"
	DefaultMetricsSubsystem      = "ingest"
	DefaultMetricsMaxCardinality = 10000
	DefaultTracingEnabled        = false
	DefaultTracingSampler        = "ratio"
	DefaultTracingSampleRatio    = 0.1
	DefaultTracingEndpoint       = "localhost:4317"
	DefaultTracingServiceName    = "socialschedule"
	DefaultTracingOTLPInsecure   = true
	DefaultTracingOTLPTimeout    = 10 * time.Second
)

// DefaultMetricsDurationBuckets returns the default operation duration
// histogram buckets in seconds.
func DefaultMetricsDurationBuckets() []float64 {
	return []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}
}

// Default returns a configuration with every default applied. YAML files
// are decoded on top of it so that boolean defaults survive omitted keys.
func Default() *Config {
	cfg := &Config{
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				Redact: DefaultLoggingRedact,
			},
			Metrics: MetricsConfig{
				Enabled: DefaultMetricsEnabled,
			},
			Tracing: TracingConfig{
				Enabled: DefaultTracingEnabled,
				OTLP: OTLPConfig{
					Insecure: DefaultTracingOTLPInsecure,
				},
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Platform defaults - rate limits stay zero so each adapter applies
	// its own documented quota.
	for _, name := range PlatformNames {
		p := cfg.Platforms.Platform(name)
		if p.Timeout == 0 {
			p.Timeout = DefaultPlatformTimeout
		}
		if p.UsageThreshold == 0 {
			p.UsageThreshold = DefaultPlatformUsageThreshold
		}
		if p.BackoffDelay == 0 {
			p.BackoffDelay = DefaultPlatformBackoffDelay
		}
	}

	// Scan defaults
	if cfg.Scan.Concurrency == 0 {
		cfg.Scan.Concurrency = DefaultScanConcurrency
	}
	if cfg.Scan.Retry.MaxAttempts == 0 {
		cfg.Scan.Retry.MaxAttempts = DefaultScanRetryMaxAttempts
	}
	if cfg.Scan.Retry.InitialInterval == 0 {
		cfg.Scan.Retry.InitialInterval = DefaultScanRetryInitialInterval
	}
	if cfg.Scan.Retry.MaxInterval == 0 {
		cfg.Scan.Retry.MaxInterval = DefaultScanRetryMaxInterval
	}
	if cfg.Scan.Retry.Multiplier == 0 {
		cfg.Scan.Retry.Multiplier = DefaultScanRetryMultiplier
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Address == "" {
		cfg.Telemetry.Metrics.Address = DefaultMetricsAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = DefaultMetricsDurationBuckets()
	}
	if cfg.Telemetry.Metrics.MaxCardinality == 0 {
		cfg.Telemetry.Metrics.MaxCardinality = DefaultMetricsMaxCardinality
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 && cfg.Telemetry.Tracing.Sampler == "ratio" {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultTracingOTLPTimeout
	}
}
