// Package buffer holds events an application attempt has produced since the
// last flush into a timeline entity (spec.md §4.2 "pending event buffer").
// It is a thin, mutex-protected append-only list; all batching policy
// (threshold, lifecycle triggers) lives in pkg/intake.
package buffer

import (
	"sync"

	"github.com/cuemby/atsbridge/pkg/timeline"
)

// Pending accumulates timeline.Event values for a single application
// attempt between flushes.
type Pending struct {
	mu     sync.Mutex
	events []timeline.Event
}

// New returns an empty pending-event buffer.
func New() *Pending {
	return &Pending{}
}

// Add appends an event to the buffer.
func (p *Pending) Add(e timeline.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

// AddAndLen appends an event and returns the buffer's new length under the
// same lock acquisition, matching spec.md §4.2's atomic
// "addPendingEvent(e) -> newSize" (callers that need to act on the
// post-append size, like the batch-threshold check in pkg/intake, must not
// do so via a separate Add then Len: another goroutine's Add/Drain could
// interleave between the two and the read count would not reflect this
// call's own append).
func (p *Pending) AddAndLen(e timeline.Event) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return len(p.events)
}

// Len returns the number of events currently buffered.
func (p *Pending) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// Drain removes and returns all buffered events, leaving the buffer empty.
// It returns nil when nothing was buffered, so callers can skip a flush.
func (p *Pending) Drain() []timeline.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	drained := p.events
	p.events = nil
	return drained
}
