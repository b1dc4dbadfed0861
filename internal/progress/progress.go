// Package progress delivers percentage updates to an external sink while
// keeping observed values monotonic within one run.
package progress

import (
	"context"
	"fmt"
	"sync"
)

// Event is one update delivered to a progress sink.
type Event struct {
	// Percent is the overall completion, 0-100.
	Percent int

	// Text is an optional status line, e.g. "checking folders (3/10)".
	Text string
}

// Func is the external sink. It is treated as an opaque callback.
type Func func(Event)

// Tracker guards a Func so observers only see non-decreasing percentages.
// Safe for concurrent use; calls into the sink are serialized.
type Tracker struct {
	mu      sync.Mutex
	sink    Func
	ctx     context.Context
	percent int
}

// NewTracker wraps sink. Once ctx is done no further updates are delivered.
// A nil sink yields a Tracker that only records the current value.
func NewTracker(ctx context.Context, sink Func) *Tracker {
	return &Tracker{sink: sink, ctx: ctx}
}

// Update reports percent. Values are clamped to 0-100; values below the last
// delivered percentage are raised to it.
func (t *Tracker) Update(percent int) {
	t.emit(percent, "", false)
}

// Status reports text at the current percentage.
func (t *Tracker) Status(text string) {
	t.emit(0, text, true)
}

// Percent returns the last delivered percentage.
func (t *Tracker) Percent() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percent
}

func (t *Tracker) emit(percent int, text string, keep bool) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ctx != nil && t.ctx.Err() != nil {
		return
	}
	if keep {
		percent = t.percent
	}
	percent = min(max(percent, 0), 100)
	if percent < t.percent {
		percent = t.percent
	}
	t.percent = percent
	if t.sink != nil {
		t.sink(Event{Percent: percent, Text: text})
	}
}

// Share returns round(done/total * span), the portion of span covered after
// done of total units.
func Share(done, total, span int) int {
	if total <= 0 {
		return span
	}
	return (2*done*span + total) / (2 * total)
}

// Format formats an Event as a human-readable status line.
func Format(event Event) string {
	if event.Text == "" {
		return fmt.Sprintf("[%3d%%]", event.Percent)
	}
	return fmt.Sprintf("[%3d%%] %s", event.Percent, event.Text)
}
