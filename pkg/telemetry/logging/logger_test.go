package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/altmunch/SocialSchedule-sub011/pkg/config"
	"github.com/altmunch/SocialSchedule-sub011/pkg/telemetry/metrics"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  config.LoggingConfig
		wantErr bool
	}{
		{name: "json", config: config.LoggingConfig{Level: "info", Format: "json"}},
		{name: "text", config: config.LoggingConfig{Level: "debug", Format: "text"}},
		{name: "defaults", config: config.LoggingConfig{}},
		{name: "upper case", config: config.LoggingConfig{Level: "WARN", Format: "JSON"}},
		{name: "invalid level", config: config.LoggingConfig{Level: "verbose"}, wantErr: true},
		{name: "invalid format", config: config.LoggingConfig{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config, &bytes.Buffer{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %s", buf.String())
	}

	logger.Warn("shown")
	if entry := decodeLine(t, &buf); entry["msg"] != "shown" || entry["level"] != "WARN" {
		t.Errorf("entry = %v", entry)
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(config.LoggingConfig{Format: "text"}, &buf)
	logger.Info("queue drained", "pending", 0)

	if out := buf.String(); !strings.Contains(out, `msg="queue drained"`) || !strings.Contains(out, "pending=0") {
		t.Errorf("unexpected text output: %s", out)
	}
}

func TestNew_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(config.LoggingConfig{Format: "json"}, &buf)

	c := metrics.NewCollector()
	span := c.StartSpan("scan.fetch_post_metrics", nil)
	defer span.Finish()

	ctx := metrics.ContextWithSpan(context.Background(), span)
	ctx = WithPlatform(ctx, "tiktok")
	ctx = WithAccount(ctx, "brand")
	ctx = WithScanID(ctx, "scan-1")

	logger.InfoContext(ctx, "fetching")
	entry := decodeLine(t, &buf)

	want := map[string]string{
		"platform": "tiktok",
		"account":  "brand",
		"scan_id":  "scan-1",
		"trace_id": span.TraceID,
		"span_id":  span.ID,
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %q", k, entry[k], v)
		}
	}
}

func TestNew_ContextFieldsNotRepeated(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(config.LoggingConfig{Format: "json"}, &buf)

	ctx := WithPlatform(context.Background(), "tiktok")
	ctx = WithScanID(ctx, "scan-1")
	ctx = WithAccount(ctx, "brand")

	logger.With("platform", "tiktok").InfoContext(ctx, "fetching", "account", "other")

	line := buf.String()
	for _, key := range []string{`"platform":`, `"account":`, `"scan_id":`} {
		if n := strings.Count(line, key); n != 1 {
			t.Errorf("%s appears %d times in %s", key, n, line)
		}
	}
	if entry := decodeLine(t, &buf); entry["account"] != "other" {
		t.Errorf("account = %v, want the record's own value", entry["account"])
	}
}

func TestNew_NoContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(config.LoggingConfig{Format: "json"}, &buf)

	logger.With("component", "scan").Info("plain")
	entry := decodeLine(t, &buf)
	if _, ok := entry["trace_id"]; ok {
		t.Error("trace_id logged without a span")
	}
	if entry["component"] != "scan" {
		t.Errorf("component = %v", entry["component"])
	}
}

func TestNew_RedactionToggle(t *testing.T) {
	tests := []struct {
		redact bool
		want   string
	}{
		{redact: true, want: "IGQV***"},
		{redact: false, want: "IGQVJXsecretvalue"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger, _ := New(config.LoggingConfig{Format: "json", Redact: tt.redact}, &buf)
		logger.Info("configured", "access_token", "IGQVJXsecretvalue")

		if got := decodeLine(t, &buf)["access_token"]; got != tt.want {
			t.Errorf("redact=%v: access_token = %v, want %q", tt.redact, got, tt.want)
		}
	}
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	if _, err := Setup(config.LoggingConfig{Format: "json"}, &buf); err != nil {
		t.Fatal(err)
	}
	slog.Info("via default")
	if entry := decodeLine(t, &buf); entry["msg"] != "via default" {
		t.Errorf("entry = %v", entry)
	}
}
