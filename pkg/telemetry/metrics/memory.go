package metrics

import "sync"

// DefaultMemoryCapacity bounds each MemoryProvider buffer.
const DefaultMemoryCapacity = 10000

// MemoryProvider keeps recent metrics and finished spans in memory. When a
// buffer is full the oldest entry is dropped.
type MemoryProvider struct {
	capacity int

	mu      sync.Mutex
	metrics []Metric
	spans   []SpanData
	started int64
}

// NewMemoryProvider creates a provider holding at most capacity metrics and
// capacity spans. A non-positive capacity uses DefaultMemoryCapacity.
func NewMemoryProvider(capacity int) *MemoryProvider {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryProvider{capacity: capacity}
}

// RecordMetric stores m.
func (p *MemoryProvider) RecordMetric(m Metric) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.metrics) == p.capacity {
		p.metrics = p.metrics[1:]
	}
	p.metrics = append(p.metrics, m)
}

// SpanStarted counts started spans.
func (p *MemoryProvider) SpanStarted(*Span) {
	p.mu.Lock()
	p.started++
	p.mu.Unlock()
}

// SpanFinished stores data.
func (p *MemoryProvider) SpanFinished(data SpanData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.spans) == p.capacity {
		p.spans = p.spans[1:]
	}
	p.spans = append(p.spans, data)
}

// Metrics returns the stored metrics, oldest first.
func (p *MemoryProvider) Metrics() []Metric {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Metric, len(p.metrics))
	copy(out, p.metrics)
	return out
}

// MetricsNamed returns the stored metrics with the given name.
func (p *MemoryProvider) MetricsNamed(name string) []Metric {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Metric
	for _, m := range p.metrics {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// Spans returns the finished spans, in finish order.
func (p *MemoryProvider) Spans() []SpanData {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SpanData, len(p.spans))
	copy(out, p.spans)
	return out
}

// StartedSpans returns the number of spans started.
func (p *MemoryProvider) StartedSpans() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

// Reset discards everything recorded.
func (p *MemoryProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metrics = nil
	p.spans = nil
	p.started = 0
}
