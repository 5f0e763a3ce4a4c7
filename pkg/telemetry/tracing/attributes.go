package tracing

import (
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys set on platform operation spans.
const (
	AttrPlatform           = "socialschedule.platform"
	AttrAccount            = "socialschedule.account"
	AttrPostID             = "socialschedule.post.id"
	AttrAttempt            = "socialschedule.attempt"
	AttrFailureKind        = "socialschedule.failure.kind"
	AttrFailureCode        = "socialschedule.failure.code"
	AttrRateLimitLimit     = "socialschedule.rate_limit.limit"
	AttrRateLimitRemaining = "socialschedule.rate_limit.remaining"

	// AttrSpanID and AttrTraceID carry the collector's own identifiers so
	// exported spans can be matched with logs.
	AttrSpanID  = "socialschedule.span_id"
	AttrTraceID = "socialschedule.trace_id"
)

// Attributes converts a collector attribute map, sorted by key.
func Attributes(attrs map[string]any) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		out = append(out, Attribute(k, attrs[k]))
	}
	return out
}

// Attribute converts a single value. Unsupported types are formatted with
// fmt.Sprint.
func Attribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case time.Duration:
		return attribute.Int64(key, v.Milliseconds())
	case error:
		return attribute.String(key, v.Error())
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}
