package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "platforms.tiktok.access_token").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	for _, name := range PlatformNames {
		errs = append(errs, validatePlatform("platforms."+name, cfg.Platforms.Platform(name))...)
	}
	errs = append(errs, validateBudgets(cfg.Budgets)...)
	errs = append(errs, validateScan(&cfg.Scan, &cfg.Platforms)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validatePlatform(prefix string, p *PlatformConfig) []FieldError {
	if !p.Enabled {
		return nil
	}

	var errs []FieldError

	if p.AccessToken == "" {
		errs = append(errs, FieldError{
			Field:   prefix + ".access_token",
			Message: "access token is required when the platform is enabled",
		})
	}
	if p.BaseURL != "" {
		if u, err := url.Parse(p.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".base_url",
				Message: fmt.Sprintf("invalid URL %q", p.BaseURL),
			})
		}
	}
	if p.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   prefix + ".timeout",
			Message: "timeout must not be negative",
		})
	}

	rl := p.RateLimit
	if rl != (RateLimitConfig{}) && (rl.RequestsPerWindow <= 0 || rl.WindowSeconds <= 0) {
		errs = append(errs, FieldError{
			Field:   prefix + ".rate_limit",
			Message: "requests_per_window and window_seconds must both be positive",
		})
	}
	if p.UsageThreshold <= 0 || p.UsageThreshold > 1 {
		errs = append(errs, FieldError{
			Field:   prefix + ".usage_threshold",
			Message: "usage threshold must be in (0, 1]",
		})
	}
	if p.BackoffDelay < 0 {
		errs = append(errs, FieldError{
			Field:   prefix + ".backoff_delay",
			Message: "backoff delay must not be negative",
		})
	}

	return errs
}

func validateBudgets(budgets []BudgetConfig) []FieldError {
	var errs []FieldError

	for i, b := range budgets {
		prefix := fmt.Sprintf("budgets[%d]", i)

		if b.Operation == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".operation",
				Message: "operation is required",
			})
		}
		if b.MaxDurationMs < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".max_duration_ms",
				Message: "max duration must not be negative",
			})
		}
		if b.ErrorRateThreshold < 0 || b.ErrorRateThreshold > 1 {
			errs = append(errs, FieldError{
				Field:   prefix + ".error_rate_threshold",
				Message: "error rate threshold must be between 0.0 and 1.0",
			})
		}
		if b.P95ThresholdMs != nil && *b.P95ThresholdMs < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".p95_threshold_ms",
				Message: "p95 threshold must not be negative",
			})
		}
	}

	return errs
}

func validateScan(cfg *ScanConfig, platforms *PlatformsConfig) []FieldError {
	var errs []FieldError

	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "scan.schedule",
				Message: fmt.Sprintf("invalid cron schedule %q: %v", cfg.Schedule, err),
			})
		}
	}
	if cfg.Concurrency < 1 {
		errs = append(errs, FieldError{
			Field:   "scan.concurrency",
			Message: "concurrency must be at least 1",
		})
	}

	if cfg.Retry.MaxAttempts < 1 {
		errs = append(errs, FieldError{
			Field:   "scan.retry.max_attempts",
			Message: "max attempts must be at least 1",
		})
	}
	if cfg.Retry.InitialInterval <= 0 {
		errs = append(errs, FieldError{
			Field:   "scan.retry.initial_interval",
			Message: "initial interval must be positive",
		})
	}
	if cfg.Retry.MaxInterval < cfg.Retry.InitialInterval {
		errs = append(errs, FieldError{
			Field:   "scan.retry.max_interval",
			Message: "max interval must not be shorter than the initial interval",
		})
	}
	if cfg.Retry.Multiplier < 1 {
		errs = append(errs, FieldError{
			Field:   "scan.retry.multiplier",
			Message: "multiplier must be at least 1.0",
		})
	}

	for i, target := range cfg.Targets {
		prefix := fmt.Sprintf("scan.targets[%d]", i)

		p := platforms.Platform(target.Platform)
		switch {
		case p == nil:
			errs = append(errs, FieldError{
				Field:   prefix + ".platform",
				Message: fmt.Sprintf("unknown platform %q: must be one of %v", target.Platform, PlatformNames),
			})
		case !p.Enabled:
			errs = append(errs, FieldError{
				Field:   prefix + ".platform",
				Message: fmt.Sprintf("platform %q is not enabled", target.Platform),
			})
		case target.Account != p.Account:
			errs = append(errs, FieldError{
				Field:   prefix + ".account",
				Message: fmt.Sprintf("account %q does not match platforms.%s.account %q", target.Account, target.Platform, p.Account),
			})
		}

		for j, post := range target.Posts {
			if post.ID == "" {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("%s.posts[%d].id", prefix, j),
					Message: "post id is required",
				})
			}
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Validate logging level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	// Validate logging format
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	// Validate metrics endpoint
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with '/'",
		})
	}
	for i := 1; i < len(cfg.Metrics.DurationBuckets); i++ {
		if cfg.Metrics.DurationBuckets[i] <= cfg.Metrics.DurationBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.duration_buckets",
				Message: "buckets must be in strictly increasing order",
			})
			break
		}
	}

	// Validate tracing configuration
	validSamplers := map[string]bool{"always": true, "never": true, "ratio": true}
	if !validSamplers[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}
