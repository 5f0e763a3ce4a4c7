// Package config loads and validates SocialSchedule configuration.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("socialschedule.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("socialschedule.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention SOCIALSCHEDULE_SECTION_FIELD.
// For example:
//
//   - SOCIALSCHEDULE_TIKTOK_ACCESS_TOKEN overrides platforms.tiktok.access_token
//   - SOCIALSCHEDULE_SCAN_SCHEDULE overrides scan.schedule
//   - SOCIALSCHEDULE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Example
//
//	platforms:
//	  tiktok:
//	    enabled: true
//	    rate_limit:
//	      requests_per_window: 600
//	      window_seconds: 60
//	    usage_threshold: 0.8
//	    backoff_delay: 1m
//	budgets:
//	  - operation: tiktok.get_post_metrics
//	    max_duration_ms: 2000
//	    error_rate_threshold: 0.1
//	scan:
//	  schedule: "*/15 * * * *"
//	  targets:
//	    - platform: tiktok
//	      activity: true
//	      posts:
//	        - {id: "7301", priority: 10}
//
// # Hot Reload
//
// A Watcher reloads the file on change and passes every valid result to a
// callback; the scan command uses it to re-apply performance budgets without
// a restart.
//
// # Singleton Pattern
//
// GetConfig and SetConfig hold a process-wide configuration.
// Prefer passing *Config explicitly; tests should never rely on the global.
package config
