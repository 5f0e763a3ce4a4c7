package metrics

import (
	"math"
	"sort"
)

// DefaultWindowSize is the number of duration samples kept per operation.
const DefaultWindowSize = 100

// OperationWindow keeps the most recent duration samples of one operation.
// The oldest sample is evicted once the window is full. OperationWindow is
// not safe for concurrent use; State guards it.
type OperationWindow struct {
	samples []float64
	next    int
	full    bool
	sorted  []float64
}

// NewOperationWindow creates a window holding at most size samples.
func NewOperationWindow(size int) *OperationWindow {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &OperationWindow{samples: make([]float64, 0, size)}
}

// Add records a sample.
func (w *OperationWindow) Add(v float64) {
	w.sorted = nil
	if !w.full {
		w.samples = append(w.samples, v)
		if len(w.samples) == cap(w.samples) {
			w.full = true
		}
		return
	}
	w.samples[w.next] = v
	w.next = (w.next + 1) % len(w.samples)
}

// Len returns the number of samples held.
func (w *OperationWindow) Len() int {
	return len(w.samples)
}

// Values returns the samples in insertion order, oldest first.
func (w *OperationWindow) Values() []float64 {
	out := make([]float64, 0, len(w.samples))
	out = append(out, w.samples[w.next:]...)
	return append(out, w.samples[:w.next]...)
}

// Percentile returns the nearest-rank p-th percentile (0 < p <= 100), or 0
// for an empty window.
func (w *OperationWindow) Percentile(p float64) float64 {
	n := len(w.samples)
	if n == 0 {
		return 0
	}
	if w.sorted == nil {
		w.sorted = make([]float64, n)
		copy(w.sorted, w.samples)
		sort.Float64s(w.sorted)
	}

	idx := int(math.Ceil(p/100*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return w.sorted[idx]
}
