package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type classifiedError struct{}

func (classifiedError) Error() string     { return "rate limited" }
func (classifiedError) ErrorType() string { return "rejection" }

func TestSpan_FinishIsWriteOnce(t *testing.T) {
	clock := newFakeClock()
	mem := NewMemoryProvider(0)
	c := NewCollector(WithProvider(mem), WithClock(clock.Now))

	span := c.StartSpan("op", nil)
	span.SetAttribute("k", "v")

	first := clock.Advance(10 * time.Millisecond)
	span.FinishAt(first)
	span.FinishAt(first.Add(time.Hour))
	span.Finish()

	span.SetAttribute("late", true)
	span.AddEvent("late", nil)
	span.RecordException(errors.New("late"))

	data := span.Snapshot()
	if !data.EndTime.Equal(first) {
		t.Errorf("EndTime = %v, want %v", data.EndTime, first)
	}
	if data.Duration() != 10*time.Millisecond || span.Duration() != 10*time.Millisecond {
		t.Errorf("Duration = %v", data.Duration())
	}
	if data.Status != StatusOK {
		t.Errorf("Status = %v, want ok", data.Status)
	}
	if _, ok := data.Attributes["late"]; ok {
		t.Error("attribute set after finish")
	}
	if len(data.Events) != 0 {
		t.Errorf("events after finish: %+v", data.Events)
	}
	if data.Attributes["k"] != "v" {
		t.Errorf("Attributes = %v", data.Attributes)
	}

	if n := len(mem.Spans()); n != 1 {
		t.Errorf("provider saw %d finished spans, want 1", n)
	}
}

func TestSpan_RecordException(t *testing.T) {
	c := NewCollector()
	span := c.StartSpan("op", nil)

	span.RecordException(fmt.Errorf("wrapped: %w", classifiedError{}))
	span.SetStatus(StatusOK, "")
	span.Finish()

	data := span.Snapshot()
	if data.Status != StatusError {
		t.Errorf("error status should stick, got %v", data.Status)
	}
	if len(data.Events) != 1 || data.Events[0].Name != "exception" {
		t.Fatalf("Events = %+v", data.Events)
	}
	attrs := data.Events[0].Attributes
	if attrs["exception.type"] != "rejection" {
		t.Errorf("exception.type = %v", attrs["exception.type"])
	}
	if attrs["exception.message"] != "wrapped: rate limited" {
		t.Errorf("exception.message = %v", attrs["exception.message"])
	}

	plain := c.StartSpan("op", nil)
	plain.RecordException(errors.New("x"))
	if got := plain.Snapshot().Events[0].Attributes["exception.type"]; got != "*errors.errorString" {
		t.Errorf("exception.type = %v", got)
	}
}

func TestSpan_Tree(t *testing.T) {
	c := NewCollector()
	root := c.StartSpan("scan", nil)
	ctx := ContextWithSpan(context.Background(), root)

	var child, grandchild *Span
	err := c.WithSpan(ctx, "child", func(ctx context.Context, s *Span) error {
		child = s
		return c.WithSpan(ctx, "grandchild", func(ctx context.Context, s *Span) error {
			grandchild = s
			if SpanFromContext(ctx) != s {
				t.Error("context does not carry the innermost span")
			}
			return nil
		})
	})
	if err != nil {
		t.Fatal(err)
	}
	root.Finish()

	if root.ParentID != "" || root.TraceID == "" {
		t.Errorf("root = %+v", root.Snapshot())
	}
	if child.ParentID != root.ID || child.TraceID != root.TraceID {
		t.Errorf("child not linked to root: %+v", child.Snapshot())
	}
	if grandchild.ParentID != child.ID || grandchild.TraceID != root.TraceID {
		t.Errorf("grandchild not linked to child: %+v", grandchild.Snapshot())
	}

	other := c.StartSpan("scan", nil)
	if other.TraceID == root.TraceID {
		t.Error("independent roots share a trace id")
	}
	if ids := map[string]bool{root.ID: true, child.ID: true, grandchild.ID: true}; len(ids) != 3 {
		t.Error("span ids are not unique")
	}
}

func TestSpanFromContext_Empty(t *testing.T) {
	if SpanFromContext(context.Background()) != nil {
		t.Error("expected nil span")
	}
}
