package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/eapache/queue"
)

// Task is a unit of work owned by a Queue from Enqueue until it completes.
// Tasks capture whatever request context they need; the queue itself never
// cancels a task once it has started.
type Task func() (any, error)

// job pairs a task with the future its caller is waiting on.
type job struct {
	task   Task
	future *Future

	// delay is set for synthetic sleep jobs inserted by Delay.
	delay time.Duration
}

// Queue executes tasks one at a time, in submission order, spaced at least
// Config.Interval() apart.
//
// # Drain Loop
//
// The first Enqueue on an idle queue starts a single worker goroutine that
// pops the head task, runs it, delivers its result, sleeps for the pacing
// interval and repeats until the queue is empty. A draining flag guarded by
// mu ensures at most one worker per queue; Enqueue calls made while it runs
// only append.
//
// # Adaptive Backoff
//
// Delay inserts a synthetic sleep at the front of the queue. Everything still
// pending is deferred by the same amount and keeps its relative order.
//
// # Thread Safety
//
// Queue is safe for concurrent use. Each Queue is owned by exactly one
// client; queues never share state.
type Queue struct {
	name     string
	config   Config
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	pending  *queue.Queue // FIFO of *job
	front    []*job       // synthetic delays, last element runs first
	draining bool
	closed   bool

	completed int64
	failed    int64
	delays    int64

	// ctx is cancelled by Close and interrupts pacing and delay sleeps.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger used by the queue.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// New creates a queue paced by cfg. The name identifies the owning client in
// logs.
//
// Example:
//
//	q, err := ratelimit.New("instagram", ratelimit.Config{
//	    RequestsPerWindow: 200,
//	    WindowSeconds:     60,
//	})
func New(name string, cfg Config, opts ...Option) (*Queue, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rate limit config for %q: %w", name, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		name:     name,
		config:   cfg,
		interval: cfg.Interval(),
		logger:   slog.Default(),
		pending:  queue.New(),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.logger = q.logger.With("component", "ratelimit.queue", "queue", name)

	return q, nil
}

// Name returns the queue name.
func (q *Queue) Name() string {
	return q.name
}

// Config returns the pacing configuration.
func (q *Queue) Config() Config {
	return q.config
}

// Enqueue appends task to the queue and returns a Future for its result.
// It never blocks and never panics; a task that panics resolves with an
// error. If the queue is idle the drain loop is started.
func (q *Queue) Enqueue(task Task) *Future {
	if task == nil {
		return resolved(nil, fmt.Errorf("ratelimit: nil task"))
	}

	j := &job{task: task, future: newFuture()}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return resolved(nil, ErrQueueClosed)
	}
	q.pending.Add(j)
	q.startDrainLocked()
	q.mu.Unlock()

	return j.future
}

// Delay inserts a synthetic sleep of d at the front of the queue, deferring
// every task that has not started yet. Non-positive durations are ignored.
func (q *Queue) Delay(d time.Duration) {
	if d <= 0 {
		return
	}

	j := &job{delay: d, future: newFuture()}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.front = append(q.front, j)
	q.delays++
	q.startDrainLocked()

	q.logger.Info("adaptive backoff scheduled",
		"delay", d,
		"pending", q.pending.Length(),
	)
}

// Len returns the number of jobs waiting to run, including synthetic delays.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Length() + len(q.front)
}

// Stats returns a snapshot of the queue counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Pending:   q.pending.Length() + len(q.front),
		Completed: q.completed,
		Failed:    q.failed,
		Delays:    q.delays,
		Draining:  q.draining,
	}
}

// Close stops the queue. Tasks that have not started resolve with
// ErrQueueClosed; a task already running is allowed to finish. Close waits
// for the drain loop to exit and is safe to call more than once.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()

	q.mu.Lock()
	abandoned := q.drainPendingLocked()
	q.mu.Unlock()

	for _, j := range abandoned {
		j.future.resolve(nil, ErrQueueClosed)
	}
	if len(abandoned) > 0 {
		q.logger.Warn("queue closed with pending tasks", "abandoned", len(abandoned))
	}
	return nil
}

// startDrainLocked starts the worker if it is not already running.
// Caller must hold q.mu.
func (q *Queue) startDrainLocked() {
	if q.draining {
		return
	}
	q.draining = true
	q.wg.Add(1)
	go q.drain()
}

// drain is the worker loop. It exits when the queue is empty or closed.
func (q *Queue) drain() {
	defer q.wg.Done()

	for {
		q.mu.Lock()
		if q.closed {
			q.draining = false
			q.mu.Unlock()
			return
		}
		j := q.popLocked()
		if j == nil {
			q.draining = false
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()

		if j.delay > 0 {
			q.sleep(j.delay)
			j.future.resolve(nil, nil)
		} else {
			q.run(j)
		}

		// Pace before the next pop.
		q.sleep(q.interval)
	}
}

// popLocked removes the next job: synthetic delays first, then FIFO order.
// Caller must hold q.mu.
func (q *Queue) popLocked() *job {
	if n := len(q.front); n > 0 {
		j := q.front[n-1]
		q.front[n-1] = nil
		q.front = q.front[:n-1]
		return j
	}
	if q.pending.Length() == 0 {
		return nil
	}
	return q.pending.Remove().(*job)
}

// drainPendingLocked empties both lists and returns the removed jobs.
// Caller must hold q.mu.
func (q *Queue) drainPendingLocked() []*job {
	var out []*job
	for j := q.popLocked(); j != nil; j = q.popLocked() {
		out = append(out, j)
	}
	return out
}

// run executes a user task, recovering panics, and resolves its future.
func (q *Queue) run(j *job) {
	var (
		value any
		err   error
	)

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("ratelimit: task panicked: %v", r)
				q.logger.Error("task panicked", "panic", r)
			}
		}()
		value, err = j.task()
	}()

	q.mu.Lock()
	if err != nil {
		q.failed++
	} else {
		q.completed++
	}
	q.mu.Unlock()

	j.future.resolve(value, err)
}

// sleep waits for d or until the queue is closed.
func (q *Queue) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-q.ctx.Done():
	}
}
