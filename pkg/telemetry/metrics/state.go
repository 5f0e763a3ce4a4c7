package metrics

import (
	"sort"
	"sync"
)

// ErrorRateCounter counts operation outcomes. Both counts only grow.
type ErrorRateCounter struct {
	Success int64
	Failure int64
}

// Total returns Success + Failure.
func (c ErrorRateCounter) Total() int64 {
	return c.Success + c.Failure
}

// Rate returns Failure / Total, or 0 when nothing was recorded.
func (c ErrorRateCounter) Rate() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.Failure) / float64(total)
}

// State holds the per-operation aggregates of a collector: duration windows
// and outcome counters.
type State struct {
	mu         sync.Mutex
	windowSize int
	windows    map[string]*OperationWindow
	counters   map[string]*ErrorRateCounter
}

// NewState creates an empty state with windows of windowSize samples.
func NewState(windowSize int) *State {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &State{
		windowSize: windowSize,
		windows:    make(map[string]*OperationWindow),
		counters:   make(map[string]*ErrorRateCounter),
	}
}

// observation is what budget evaluation needs after a duration sample.
type observation struct {
	errorRate float64
	p95       float64
}

// AddDuration records a duration sample and returns the operation's current
// error rate and p95.
func (s *State) AddDuration(operation string, ms float64) observation {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[operation]
	if !ok {
		w = NewOperationWindow(s.windowSize)
		s.windows[operation] = w
	}
	w.Add(ms)

	obs := observation{p95: w.Percentile(95)}
	if c, ok := s.counters[operation]; ok {
		obs.errorRate = c.Rate()
	}
	return obs
}

// AddResult counts one outcome.
func (s *State) AddResult(operation string, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[operation]
	if !ok {
		c = &ErrorRateCounter{}
		s.counters[operation] = c
	}
	if success {
		c.Success++
	} else {
		c.Failure++
	}
}

// Stats returns a snapshot for operation.
func (s *State) Stats(operation string) OperationStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := OperationStats{Operation: operation}
	if c, ok := s.counters[operation]; ok {
		stats.Success = c.Success
		stats.Failure = c.Failure
		stats.ErrorRate = c.Rate()
	}
	if w, ok := s.windows[operation]; ok {
		stats.Count = w.Len()
		stats.P50 = w.Percentile(50)
		stats.P95 = w.Percentile(95)
		stats.P99 = w.Percentile(99)
	}
	return stats
}

// Operations returns every operation name seen so far, sorted.
func (s *State) Operations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(s.windows)+len(s.counters))
	for op := range s.windows {
		seen[op] = struct{}{}
	}
	for op := range s.counters {
		seen[op] = struct{}{}
	}
	ops := make([]string, 0, len(seen))
	for op := range seen {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}
