package metrics

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/altmunch/SocialSchedule-sub011/pkg/config"
	"github.com/altmunch/SocialSchedule-sub011/pkg/limits/ratelimit"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// overflowLabel replaces label values once the cardinality limit is hit.
const overflowLabel = "other"

// PrometheusProvider mirrors collector samples into a Prometheus registry.
//
// Metrics:
//   - <ns>_<sub>_operation_duration_seconds: operation duration histogram
//   - <ns>_<sub>_operation_results_total: outcomes by operation, result, error_type
//   - <ns>_<sub>_spans_total: finished spans by operation and status
//   - <ns>_<sub>_spans_in_flight: spans started but not finished
//   - <ns>_<sub>_budget_alerts_total: budget breaches by operation and metric
//   - <ns>_<sub>_queue_*: request queue statistics per registered queue
//
// Samples with any other name get a vector created on first use.
type PrometheusProvider struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry
	logger   *slog.Logger

	operationDuration *prometheus.HistogramVec
	operationResults  *prometheus.CounterVec
	spans             *prometheus.CounterVec
	spansInFlight     prometheus.Gauge
	budgetAlerts      *prometheus.CounterVec

	cardinalityLimiter *CardinalityLimiter

	mu      sync.Mutex
	dynamic map[string]*dynamicVec
	queues  *queueCollector
}

type dynamicVec struct {
	typ       MetricType
	labelKeys []string
	counter   *prometheus.CounterVec
	gauge     *prometheus.GaugeVec
	histogram *prometheus.HistogramVec
}

// NewPrometheusProvider creates a provider and registers its metrics with
// registry. Unset fields of cfg take the config defaults and a nil cfg is an
// enabled provider with default names. A nil registry gets a fresh one that
// also exports the Go runtime and process collectors.
//
// Example:
//
//	provider := metrics.NewPrometheusProvider(&cfg.Telemetry.Metrics, nil)
//	collector := metrics.NewCollector(metrics.WithProvider(provider))
//	http.Handle(cfg.Telemetry.Metrics.Path, provider.Handler())
func NewPrometheusProvider(cfg *config.MetricsConfig, registry *prometheus.Registry) *PrometheusProvider {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	// Defaults are applied to a copy; the caller's config is left as is.
	c := config.MetricsConfig{Enabled: config.DefaultMetricsEnabled}
	if cfg != nil {
		c = *cfg
	}
	cfg = &c

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = config.DefaultMetricsDurationBuckets()
	}
	if cfg.MaxCardinality <= 0 {
		cfg.MaxCardinality = config.DefaultMetricsMaxCardinality
	}

	p := &PrometheusProvider{
		config:             cfg,
		registry:           registry,
		logger:             slog.Default().With("component", "telemetry.prometheus"),
		cardinalityLimiter: NewCardinalityLimiter(cfg.MaxCardinality),
		dynamic:            make(map[string]*dynamicVec),

		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "operation_duration_seconds",
				Help:      "Duration of wrapped platform operations in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"operation"},
		),

		operationResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "operation_results_total",
				Help:      "Total number of operation outcomes by result and error type",
			},
			[]string{"operation", "result", "error_type"},
		),

		spans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "spans_total",
				Help:      "Total number of finished spans by status",
			},
			[]string{"operation", "status"},
		),

		spansInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "spans_in_flight",
				Help:      "Number of spans started but not yet finished",
			},
		),

		budgetAlerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "budget_alerts_total",
				Help:      "Total number of performance budget breaches",
			},
			[]string{"operation", "metric"},
		),
	}

	registry.MustRegister(
		p.operationDuration,
		p.operationResults,
		p.spans,
		p.spansInFlight,
		p.budgetAlerts,
	)

	return p
}

// Registry returns the registry the provider writes to.
func (p *PrometheusProvider) Registry() *prometheus.Registry {
	return p.registry
}

// RecordMetric implements Provider.
func (p *PrometheusProvider) RecordMetric(m Metric) {
	if !p.config.Enabled {
		return
	}

	switch m.Name {
	case MetricOperationDuration:
		op := p.limit("duration", m.Labels["operation"])
		p.operationDuration.WithLabelValues(op).Observe(m.Value / 1000)
	case MetricOperationResult:
		op, result, errType := m.Labels["operation"], m.Labels["result"], m.Labels["errorType"]
		if !p.cardinalityLimiter.Allow("result:" + op + ":" + result + ":" + errType) {
			op, errType = overflowLabel, overflowLabel
		}
		p.operationResults.WithLabelValues(op, result, errType).Add(m.Value)
	default:
		p.recordDynamic(m)
	}
}

// SpanStarted implements Provider.
func (p *PrometheusProvider) SpanStarted(*Span) {
	if !p.config.Enabled {
		return
	}
	p.spansInFlight.Inc()
}

// SpanFinished implements Provider.
func (p *PrometheusProvider) SpanFinished(data SpanData) {
	if !p.config.Enabled {
		return
	}
	p.spansInFlight.Dec()
	op := p.limit("span", data.Operation)
	p.spans.WithLabelValues(op, data.Status.String()).Inc()
}

// ObserveAlert counts a budget breach. NewCollector subscribes it
// automatically.
func (p *PrometheusProvider) ObserveAlert(alert Alert) {
	if !p.config.Enabled {
		return
	}
	p.budgetAlerts.WithLabelValues(alert.Operation, alert.Metric).Inc()
}

// ObserveQueue exports the statistics of a request queue under the "queue"
// label. stats is called on every scrape.
func (p *PrometheusProvider) ObserveQueue(name string, stats func() ratelimit.Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.queues == nil {
		p.queues = newQueueCollector(p.config.Namespace, p.config.Subsystem)
		if err := p.registry.Register(p.queues); err != nil {
			p.logger.Error("failed to register queue collector", "error", err)
			return
		}
	}
	p.queues.add(name, stats)
}

func (p *PrometheusProvider) limit(kind, value string) string {
	if !p.cardinalityLimiter.Allow(kind + ":" + value) {
		return overflowLabel
	}
	return value
}

func (p *PrometheusProvider) recordDynamic(m Metric) {
	name := sanitizeName(m.Name)

	p.mu.Lock()
	vec, ok := p.dynamic[name]
	if !ok {
		var err error
		vec, err = p.newDynamicVec(name, m)
		if err != nil {
			p.mu.Unlock()
			p.logger.Warn("dropping metric", "name", m.Name, "error", err)
			return
		}
		p.dynamic[name] = vec
	}
	p.mu.Unlock()

	if vec.typ != m.Type {
		p.logger.Debug("metric type mismatch", "name", m.Name, "registered", vec.typ.String(), "got", m.Type.String())
		return
	}

	values := make([]string, len(vec.labelKeys))
	for i, label := range vec.labelKeys {
		values[i] = m.Labels[label]
	}
	if !p.cardinalityLimiter.Allow(name + ":" + strings.Join(values, ":")) {
		for i := range values {
			values[i] = overflowLabel
		}
	}

	switch vec.typ {
	case Counter:
		if m.Value >= 0 {
			vec.counter.WithLabelValues(values...).Add(m.Value)
		}
	case Gauge:
		vec.gauge.WithLabelValues(values...).Set(m.Value)
	case Histogram:
		vec.histogram.WithLabelValues(values...).Observe(m.Value)
	}
}

// newDynamicVec creates and registers a vector for the first sample of a
// name. Label names are fixed by that first sample.
func (p *PrometheusProvider) newDynamicVec(name string, m Metric) (*dynamicVec, error) {
	keys := make([]string, 0, len(m.Labels))
	for k := range m.Labels {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return sanitizeName(keys[i]) < sanitizeName(keys[j]) })

	labelNames := make([]string, len(keys))
	for i, k := range keys {
		labelNames[i] = sanitizeName(k)
	}

	vec := &dynamicVec{typ: m.Type, labelKeys: keys}
	help := fmt.Sprintf("Recorded %s %s", m.Type, m.Name)

	var c prometheus.Collector
	switch m.Type {
	case Counter:
		vec.counter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.config.Namespace, Subsystem: p.config.Subsystem, Name: name + "_total", Help: help,
		}, labelNames)
		c = vec.counter
	case Gauge:
		vec.gauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.config.Namespace, Subsystem: p.config.Subsystem, Name: name, Help: help,
		}, labelNames)
		c = vec.gauge
	case Histogram:
		vec.histogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.config.Namespace, Subsystem: p.config.Subsystem, Name: name, Help: help,
		}, labelNames)
		c = vec.histogram
	default:
		return nil, fmt.Errorf("unknown metric type %d", m.Type)
	}

	if err := p.registry.Register(c); err != nil {
		return nil, err
	}
	return vec, nil
}

// sanitizeName maps s onto the Prometheus name alphabet [a-zA-Z0-9_].
func sanitizeName(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// queueCollector reports ratelimit queue statistics at scrape time.
type queueCollector struct {
	pending   *prometheus.Desc
	completed *prometheus.Desc
	failed    *prometheus.Desc
	delays    *prometheus.Desc

	mu      sync.RWMutex
	sources map[string]func() ratelimit.Stats
}

func newQueueCollector(namespace, subsystem string) *queueCollector {
	labels := []string{"queue"}
	return &queueCollector{
		pending: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "queue_pending"),
			"Tasks waiting in the request queue", labels, nil),
		completed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "queue_completed_total"),
			"Tasks completed without error", labels, nil),
		failed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "queue_failed_total"),
			"Tasks that returned an error or panicked", labels, nil),
		delays: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "queue_delays_total"),
			"Adaptive backoff delays inserted", labels, nil),
		sources: make(map[string]func() ratelimit.Stats),
	}
}

func (c *queueCollector) add(name string, stats func() ratelimit.Stats) {
	c.mu.Lock()
	c.sources[name] = stats
	c.mu.Unlock()
}

// Describe implements prometheus.Collector.
func (c *queueCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.pending
	ch <- c.completed
	ch <- c.failed
	ch <- c.delays
}

// Collect implements prometheus.Collector.
func (c *queueCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for name, source := range c.sources {
		s := source()
		ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(s.Pending), name)
		ch <- prometheus.MustNewConstMetric(c.completed, prometheus.CounterValue, float64(s.Completed), name)
		ch <- prometheus.MustNewConstMetric(c.failed, prometheus.CounterValue, float64(s.Failed), name)
		ch <- prometheus.MustNewConstMetric(c.delays, prometheus.CounterValue, float64(s.Delays), name)
	}
}
