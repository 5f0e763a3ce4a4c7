package metrics

import "time"

// Metric names recorded by the collector for every wrapped operation.
const (
	// MetricOperationDuration is the wall-clock duration of an operation in
	// milliseconds.
	MetricOperationDuration = "operation_duration"

	// MetricOperationResult counts operation outcomes. The "result" label is
	// "success" or "failure".
	MetricOperationResult = "operation_result"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// AlertTypeBudgetExceeded is the type of every alert raised by the collector.
const AlertTypeBudgetExceeded = "performance_budget_exceeded"

// Budget dimensions reported in Alert.Metric.
const (
	AlertMetricDuration  = "duration"
	AlertMetricErrorRate = "error_rate"
	AlertMetricP95       = "p95"
	AlertMetricMemory    = "memory"
)

// MetricType classifies a metric sample.
type MetricType int

const (
	// Counter is a monotonically increasing value.
	Counter MetricType = iota
	// Gauge is a point-in-time value.
	Gauge
	// Histogram is a distribution sample.
	Histogram
)

// String returns the lower-case type name.
func (t MetricType) String() string {
	switch t {
	case Counter:
		return "counter"
	case Gauge:
		return "gauge"
	case Histogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// Metric is a single recorded sample. Once passed to RecordMetric a Metric
// is never mutated; providers receive their own copy of the labels.
type Metric struct {
	Name      string
	Type      MetricType
	Labels    map[string]string
	Value     float64
	Timestamp time.Time
}

func (m Metric) clone() Metric {
	if m.Labels != nil {
		labels := make(map[string]string, len(m.Labels))
		for k, v := range m.Labels {
			labels[k] = v
		}
		m.Labels = labels
	}
	return m
}

// PerformanceBudget declares the limits an operation is expected to stay
// within. Zero MaxDuration or ErrorRateThreshold disables that check; nil
// optional fields are not evaluated.
type PerformanceBudget struct {
	// OperationName matches the "operation" label of recorded samples.
	OperationName string `json:"operation"`

	// MaxDuration is the per-sample duration ceiling in milliseconds.
	MaxDuration float64 `json:"max_duration_ms"`

	// ErrorRateThreshold is the failure ratio ceiling in [0, 1].
	ErrorRateThreshold float64 `json:"error_rate_threshold"`

	// P95Threshold is the 95th percentile ceiling in milliseconds.
	P95Threshold *float64 `json:"p95_threshold_ms,omitempty"`

	// MaxMemoryUsage is the heap size ceiling in bytes.
	MaxMemoryUsage *uint64 `json:"max_memory_bytes,omitempty"`
}

// Alert reports a single budget breach.
type Alert struct {
	Type      string    `json:"type"`
	Operation string    `json:"operation"`
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// OperationStats is a read-only snapshot of an operation's aggregates.
type OperationStats struct {
	Operation string  `json:"operation"`
	Count     int     `json:"count"`
	Success   int64   `json:"success"`
	Failure   int64   `json:"failure"`
	ErrorRate float64 `json:"error_rate"`
	P50       float64 `json:"p50_ms"`
	P95       float64 `json:"p95_ms"`
	P99       float64 `json:"p99_ms"`
}
