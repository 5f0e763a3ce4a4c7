package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

// ErrQueueClosed is returned for tasks that were submitted to, or still
// pending in, a queue that has been closed.
var ErrQueueClosed = errors.New("ratelimit: queue closed")

// Config is the quota window a Queue paces against.
//
// A queue configured with RequestsPerWindow=200 and WindowSeconds=60 dequeues
// at most one task every 300ms.
type Config struct {
	// RequestsPerWindow is the number of calls the provider allows per window.
	RequestsPerWindow int `yaml:"requests_per_window"`

	// WindowSeconds is the length of the quota window in seconds.
	WindowSeconds int `yaml:"window_seconds"`
}

// Validate reports whether both fields are positive.
func (c Config) Validate() error {
	if c.RequestsPerWindow <= 0 {
		return fmt.Errorf("requests_per_window must be positive, got %d", c.RequestsPerWindow)
	}
	if c.WindowSeconds <= 0 {
		return fmt.Errorf("window_seconds must be positive, got %d", c.WindowSeconds)
	}
	return nil
}

// Interval returns the pacing interval between dequeues:
// WindowSeconds*1000/RequestsPerWindow milliseconds.
func (c Config) Interval() time.Duration {
	if c.RequestsPerWindow <= 0 {
		return 0
	}
	return time.Duration(c.WindowSeconds) * time.Second / time.Duration(c.RequestsPerWindow)
}

// String implements fmt.Stringer.
func (c Config) String() string {
	return fmt.Sprintf("%d/%ds", c.RequestsPerWindow, c.WindowSeconds)
}

// Stats is a point-in-time view of a queue.
type Stats struct {
	// Pending is the number of tasks (including synthetic delays) not yet started.
	Pending int

	// Completed counts tasks that returned without error.
	Completed int64

	// Failed counts tasks that returned an error or panicked.
	Failed int64

	// Delays counts synthetic delays inserted with Queue.Delay.
	Delays int64

	// Draining reports whether the drain loop is currently active.
	Draining bool
}
