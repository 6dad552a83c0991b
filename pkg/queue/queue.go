// Package queue implements the posting queue (spec.md §3 "Posting Queue",
// §4.4, §5): a double-ended FIFO of timeline.PostAction values with a
// blocking Take, a deadline-bounded Poll, and a PushFront used to return a
// failed entity to the head of the queue so per-entity order is preserved
// across retries. The queue has no capacity limit of its own; the
// queued-event cap is applied upstream by pkg/intake's drop policy.
package queue

import (
	"sync"
	"time"

	"github.com/cuemby/atsbridge/pkg/metrics"
	"github.com/cuemby/atsbridge/pkg/timeline"
)

// Queue is the posting queue. It is safe for concurrent use by one producer
// and one consumer, matching the service's single worker thread model
// (spec.md §4.4, §5).
type Queue struct {
	mu        sync.Mutex
	notEmpty  *sync.Cond
	actions   []timeline.PostAction
	eventSize int64 // sum of action.Size() over actions currently queued
}

// New returns an empty posting queue.
func New() *Queue {
	q := &Queue{}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// PushBack enqueues an action at the tail, the normal enqueue path used by
// the flush path in pkg/intake.
func (q *Queue) PushBack(a timeline.PostAction) {
	q.mu.Lock()
	q.actions = append(q.actions, a)
	q.eventSize += int64(a.Size())
	q.publishGauges()
	q.mu.Unlock()
	q.notEmpty.Signal()
}

// PushFront re-enqueues an action at the head, used by the poster to retry
// a failed PostEntity without losing its position relative to whatever
// else is still queued (spec.md §4.4 "push back to head").
func (q *Queue) PushFront(a timeline.PostAction) {
	q.mu.Lock()
	q.actions = append([]timeline.PostAction{a}, q.actions...)
	q.eventSize += int64(a.Size())
	q.publishGauges()
	q.mu.Unlock()
	q.notEmpty.Signal()
}

// Take blocks until an action is available and returns it, removing it
// from the head of the queue.
func (q *Queue) Take() timeline.PostAction {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.actions) == 0 {
		q.notEmpty.Wait()
	}
	return q.popLocked()
}

// Poll waits up to timeout for an action to become available. The second
// return value is false if the timeout elapsed with the queue still empty.
func (q *Queue) Poll(timeout time.Duration) (timeline.PostAction, bool) {
	deadline := time.Now().Add(timeout)

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.actions) == 0 {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return timeline.PostAction{}, false
		}
		if !q.waitUntil(remaining) {
			return timeline.PostAction{}, false
		}
	}
	return q.popLocked(), true
}

// waitUntil blocks on notEmpty for at most d, returning false if it timed
// out. sync.Cond has no native timed wait, so a timer goroutine nudges the
// condition variable; this mirrors the bounded wait the worker needs during
// shutdown drain (spec.md §4.4 "poll with a deadline").
func (q *Queue) waitUntil(d time.Duration) bool {
	timedOut := false
	timer := time.AfterFunc(d, func() {
		q.mu.Lock()
		timedOut = true
		q.mu.Unlock()
		q.notEmpty.Broadcast()
	})
	defer timer.Stop()

	q.notEmpty.Wait()
	return !timedOut
}

func (q *Queue) popLocked() timeline.PostAction {
	a := q.actions[0]
	q.actions = q.actions[1:]
	q.eventSize -= int64(a.Size())
	q.publishGauges()
	return a
}

// Len returns the number of actions currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

// EventSize returns the sum of action.Size() over the current queue
// (spec.md §3 "postingQueueEventSize").
func (q *Queue) EventSize() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.eventSize
}

func (q *Queue) publishGauges() {
	metrics.PostQueueActions.Set(float64(len(q.actions)))
	metrics.PostQueueEventSize.Set(float64(q.eventSize))
}
