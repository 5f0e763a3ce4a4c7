package logging

import (
	"context"
	"log/slog"

	"github.com/altmunch/SocialSchedule-sub011/pkg/telemetry/metrics"
)

// Context keys for common log fields.
type contextKey string

const (
	// PlatformKey is the context key for platform names.
	PlatformKey contextKey = "platform"

	// AccountKey is the context key for account labels.
	AccountKey contextKey = "account"

	// ScanIDKey is the context key for scan cycle identifiers.
	ScanIDKey contextKey = "scan_id"
)

// WithPlatform adds a platform name to the context.
func WithPlatform(ctx context.Context, platform string) context.Context {
	return context.WithValue(ctx, PlatformKey, platform)
}

// GetPlatform retrieves the platform name from the context.
func GetPlatform(ctx context.Context) string {
	if platform, ok := ctx.Value(PlatformKey).(string); ok {
		return platform
	}
	return ""
}

// WithAccount adds an account label to the context.
func WithAccount(ctx context.Context, account string) context.Context {
	return context.WithValue(ctx, AccountKey, account)
}

// GetAccount retrieves the account label from the context.
func GetAccount(ctx context.Context) string {
	if account, ok := ctx.Value(AccountKey).(string); ok {
		return account
	}
	return ""
}

// WithScanID adds a scan cycle identifier to the context.
func WithScanID(ctx context.Context, scanID string) context.Context {
	return context.WithValue(ctx, ScanIDKey, scanID)
}

// GetScanID retrieves the scan cycle identifier from the context.
func GetScanID(ctx context.Context) string {
	if scanID, ok := ctx.Value(ScanIDKey).(string); ok {
		return scanID
	}
	return ""
}

// contextAttrs extracts the log fields carried by ctx. Trace and span ids
// come from the collector span in ctx, if any.
func contextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	var attrs []slog.Attr
	if scanID := GetScanID(ctx); scanID != "" {
		attrs = append(attrs, slog.String("scan_id", scanID))
	}
	if platform := GetPlatform(ctx); platform != "" {
		attrs = append(attrs, slog.String("platform", platform))
	}
	if account := GetAccount(ctx); account != "" {
		attrs = append(attrs, slog.String("account", account))
	}
	if span := metrics.SpanFromContext(ctx); span != nil {
		attrs = append(attrs,
			slog.String("trace_id", span.TraceID),
			slog.String("span_id", span.ID),
		)
	}
	return attrs
}

// contextHandler adds context fields to every record. Fields already bound
// to the logger with With, or present on the record, are not repeated.
type contextHandler struct {
	next  slog.Handler
	bound map[string]bool
	group bool
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	attrs := contextAttrs(ctx)
	if len(attrs) == 0 {
		return h.next.Handle(ctx, r)
	}

	present := make(map[string]bool, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		present[a.Key] = true
		return true
	})

	r = r.Clone()
	for _, a := range attrs {
		if !h.bound[a.Key] && !present[a.Key] {
			r.AddAttrs(a)
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := h.bound
	if !h.group {
		bound = make(map[string]bool, len(h.bound)+len(attrs))
		for k := range h.bound {
			bound[k] = true
		}
		for _, a := range attrs {
			bound[a.Key] = true
		}
	}
	return &contextHandler{next: h.next.WithAttrs(attrs), bound: bound, group: h.group}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &contextHandler{next: h.next.WithGroup(name), bound: h.bound, group: true}
}
