// Package logging builds the process logger on log/slog.
//
// # Overview
//
// New returns a *slog.Logger configured from config.LoggingConfig:
//   - JSON or text output
//   - Credential redaction (tokens, Authorization values, access_token query parameters)
//   - Context fields: scan_id, platform, account, trace_id and span_id
//
// # Usage
//
//	logger, err := logging.Setup(cfg.Telemetry.Logging, os.Stderr)
//	if err != nil {
//	    return err
//	}
//
//	ctx = logging.WithPlatform(ctx, "tiktok")
//	logger.InfoContext(ctx, "post metrics fetched", "post_id", id)
//
// trace_id and span_id are taken from the collector span carried by the
// context (see metrics.ContextWithSpan), so log lines written inside
// Collector.WithSpan correlate with exported traces.
//
// # Redaction
//
// With redaction enabled, values under sensitive keys are masked and
// credentials embedded in strings or errors are replaced:
//
//   - access_token: "IGQVJ...xyz" → "IGQV***"
//   - "Bearer abc.def" → "Bearer ***"
//   - "https://graph.instagram.com/me?access_token=abc" → "...?access_token=***"
package logging
