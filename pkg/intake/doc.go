// Package intake is the producer side of the pipeline: it never blocks on
// I/O, only briefly locking the pending buffer and posting queue, so the
// host's event-dispatch thread calling Process is never held up behind a
// network call (spec.md §4.3, §5 "producer thread(s)").
package intake
