package ratelimit

import "fmt"

// Future is the handle returned by Enqueue. It resolves exactly once, when
// the task has finished or the queue has been closed before running it.
type Future struct {
	done  chan struct{}
	value any
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// resolved returns a Future that is already complete.
func resolved(value any, err error) *Future {
	f := newFuture()
	f.resolve(value, err)
	return f
}

func (f *Future) resolve(value any, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// Done returns a channel that is closed once the result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task has completed and returns its outcome.
func (f *Future) Wait() (any, error) {
	<-f.done
	return f.value, f.err
}

// Submit enqueues fn on q and blocks until it has run, returning its typed
// result. It is a convenience wrapper over Enqueue for callers that do not
// need the Future itself.
func Submit[T any](q *Queue, fn func() (T, error)) (T, error) {
	v, err := q.Enqueue(func() (any, error) {
		return fn()
	}).Wait()

	var zero T
	if err != nil {
		if typed, ok := v.(T); ok {
			return typed, err
		}
		return zero, err
	}
	typed, ok := v.(T)
	if !ok && v != nil {
		return zero, fmt.Errorf("ratelimit: unexpected task result type %T", v)
	}
	return typed, nil
}
