package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// SpanStatus is the outcome recorded on a span.
type SpanStatus int

const (
	// StatusUnset is the status of a span that has not been finished or
	// explicitly marked.
	StatusUnset SpanStatus = iota
	// StatusOK marks a successful span.
	StatusOK
	// StatusError marks a failed span.
	StatusError
)

// String returns the lower-case status name.
func (s SpanStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "unset"
	}
}

// SpanEvent is a timestamped annotation on a span.
type SpanEvent struct {
	Name       string
	Timestamp  time.Time
	Attributes map[string]any
}

// SpanData is an immutable copy of a span's state.
type SpanData struct {
	ID            string
	TraceID       string
	ParentID      string
	Operation     string
	StartTime     time.Time
	EndTime       time.Time
	Attributes    map[string]any
	Events        []SpanEvent
	Status        SpanStatus
	StatusMessage string
}

// Duration returns EndTime - StartTime, or 0 for an unfinished span.
func (d SpanData) Duration() time.Duration {
	if d.EndTime.IsZero() {
		return 0
	}
	return d.EndTime.Sub(d.StartTime)
}

// Span is a timed, attributed unit of work. Spans started from the same root
// share its TraceID; ParentID links a child to the span that started it.
//
// A span is write-once: after Finish every mutator is a no-op.
type Span struct {
	ID        string
	TraceID   string
	ParentID  string
	Operation string
	StartTime time.Time

	now      func() time.Time
	onFinish func(SpanData)

	mu            sync.Mutex
	endTime       time.Time
	finished      bool
	attributes    map[string]any
	events        []SpanEvent
	status        SpanStatus
	statusMessage string
}

// SetAttribute sets a key on the span.
func (s *Span) SetAttribute(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	if s.attributes == nil {
		s.attributes = make(map[string]any)
	}
	s.attributes[key] = value
}

// AddEvent appends a named event stamped with the current time.
func (s *Span) AddEvent(name string, attrs map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.addEventLocked(name, attrs)
}

func (s *Span) addEventLocked(name string, attrs map[string]any) {
	copied := make(map[string]any, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	s.events = append(s.events, SpanEvent{Name: name, Timestamp: s.now(), Attributes: copied})
}

// RecordException adds an "exception" event describing err and marks the
// span as failed.
func (s *Span) RecordException(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.addEventLocked("exception", map[string]any{
		"exception.type":    errorType(err),
		"exception.message": err.Error(),
	})
	s.status = StatusError
	s.statusMessage = err.Error()
}

// SetStatus sets the span status. An error status cannot be downgraded.
func (s *Span) SetStatus(status SpanStatus, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished || s.status == StatusError {
		return
	}
	s.status = status
	s.statusMessage = message
}

// Finish ends the span at the current time. Only the first call has an
// effect.
func (s *Span) Finish() {
	s.FinishAt(s.now())
}

// FinishAt ends the span at t. Only the first call has an effect. An unset
// status becomes StatusOK.
func (s *Span) FinishAt(t time.Time) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.endTime = t
	if s.status == StatusUnset {
		s.status = StatusOK
	}
	data := s.snapshotLocked()
	onFinish := s.onFinish
	s.mu.Unlock()

	if onFinish != nil {
		onFinish(data)
	}
}

// Finished reports whether the span has ended.
func (s *Span) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Duration returns the span duration, or 0 while it is still open.
func (s *Span) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finished {
		return 0
	}
	return s.endTime.Sub(s.StartTime)
}

// Status returns the current status.
func (s *Span) Status() SpanStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot returns a copy of the span state.
func (s *Span) Snapshot() SpanData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Span) snapshotLocked() SpanData {
	attrs := make(map[string]any, len(s.attributes))
	for k, v := range s.attributes {
		attrs[k] = v
	}
	events := make([]SpanEvent, len(s.events))
	copy(events, s.events)

	return SpanData{
		ID:            s.ID,
		TraceID:       s.TraceID,
		ParentID:      s.ParentID,
		Operation:     s.Operation,
		StartTime:     s.StartTime,
		EndTime:       s.endTime,
		Attributes:    attrs,
		Events:        events,
		Status:        s.status,
		StatusMessage: s.statusMessage,
	}
}

// errorType names an error for labels and exception events. Errors that
// classify themselves through ErrorType() use that name.
func errorType(err error) string {
	var typed interface{ ErrorType() string }
	if errors.As(err, &typed) {
		return typed.ErrorType()
	}
	return fmt.Sprintf("%T", err)
}

type spanContextKey struct{}

// ContextWithSpan returns a copy of ctx carrying span.
func ContextWithSpan(ctx context.Context, span *Span) context.Context {
	return context.WithValue(ctx, spanContextKey{}, span)
}

// SpanFromContext returns the span carried by ctx, or nil.
func SpanFromContext(ctx context.Context) *Span {
	if ctx == nil {
		return nil
	}
	span, _ := ctx.Value(spanContextKey{}).(*Span)
	return span
}
