// Package poster implements the entity poster worker: the single goroutine
// that drains the posting queue into the remote Timeline Server, retrying
// transient failures with linear backoff and draining on shutdown within a
// wall-clock budget (spec.md §4.4 "Entity Poster Worker").
package poster

import (
	"context"
	"time"

	"github.com/cuemby/atsbridge/pkg/log"
	"github.com/cuemby/atsbridge/pkg/metrics"
	"github.com/cuemby/atsbridge/pkg/queue"
	"github.com/cuemby/atsbridge/pkg/timeline"
	"github.com/cuemby/atsbridge/pkg/tlclient"
)

// Config holds the poster's retry and entity-shaping knobs (spec.md §6).
type Config struct {
	RetryInterval time.Duration
	RetryMax      time.Duration
	V15Enabled    bool
	GroupID       string
}

// Worker owns the posting queue's single consumer. Exactly one instance
// runs per service (spec.md §4.4 "A single worker task").
type Worker struct {
	cfg    Config
	queue  *queue.Queue
	client *tlclient.Client

	done chan struct{}
}

// New returns a Worker; call Run in its own goroutine.
func New(cfg Config, q *queue.Queue, client *tlclient.Client) *Worker {
	return &Worker{cfg: cfg, queue: q, client: client, done: make(chan struct{})}
}

// Run blocks until a StopQueue action is taken from the queue and drained,
// or ctx is cancelled. It always calls client.Stop in its finally step
// (spec.md §5 "the worker's finally block calls stopTimelineClient()").
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	defer w.client.Stop()

	stop, ok := w.steadyState(ctx)
	if !ok {
		return // ctx cancelled before a StopQueue arrived
	}
	w.shutdownDrain(ctx, stop)
}

// Done is closed once Run has returned.
func (w *Worker) Done() <-chan struct{} { return w.done }

// steadyState repeatedly takes actions from the queue until it observes a
// StopQueue, posting entities with retry-with-backoff in between.
func (w *Worker) steadyState(ctx context.Context) (timeline.StopQueue, bool) {
	currentRetryDelay := w.cfg.RetryInterval
	lastAttemptFailed := false

	for {
		action, ok := w.takeOrDone(ctx)
		if !ok {
			return timeline.StopQueue{}, false
		}

		if action.IsStop() {
			return *action.Stop, true
		}

		err := w.postOnce(ctx, action.Entity)
		switch {
		case err == nil:
			metrics.EntityPostSuccesses.Inc()
			metrics.EventsSuccessfullyPosted.Add(float64(len(action.Entity.Events)))
			currentRetryDelay = w.cfg.RetryInterval
			lastAttemptFailed = false

		case isRejection(err):
			metrics.EntityPostRejections.Inc()
			log.WithAttemptID(attemptIDOf(action.Entity)).With().Str("component", "poster").Logger().
				Error().Err(err).Str("entity_id", action.Entity.EntityID).
				Msg("timeline server rejected entity; not retrying")

		default:
			metrics.EntityPostFailures.Inc()
			w.queue.PushFront(action)
			if !lastAttemptFailed {
				log.WithComponent("poster").Warn().Err(err).Msg("post failed; retrying with backoff")
			} else {
				log.WithComponent("poster").Debug().Err(err).Msg("post failed again; retrying with backoff")
			}
			lastAttemptFailed = true
			currentRetryDelay = minDuration(currentRetryDelay+w.cfg.RetryInterval, w.cfg.RetryMax)
			if !sleepOrDone(ctx, currentRetryDelay) {
				return timeline.StopQueue{}, false
			}
		}
	}
}

// shutdownDrain polls the queue until it is empty or stop.TimeLimit
// elapses, retrying a failed post once per poll with cfg.RetryInterval
// between attempts. A zero RetryInterval aborts the drain on first failure
// (spec.md §4.4 "if retryInterval == 0, rethrow").
func (w *Worker) shutdownDrain(ctx context.Context, stop timeline.StopQueue) {
	for {
		remaining := time.Until(stop.TimeLimit())
		if remaining <= 0 {
			return
		}

		action, ok := w.queue.Poll(remaining)
		if !ok {
			return // empty poll: drained cleanly
		}
		if action.IsStop() {
			continue // ignore additional StopQueue entries
		}

		if err := w.postOnce(ctx, action.Entity); err != nil {
			if isRejection(err) {
				metrics.EntityPostRejections.Inc()
				continue
			}
			metrics.EntityPostFailures.Inc()
			w.queue.PushFront(action)
			if w.cfg.RetryInterval == 0 {
				return // abort drain
			}
			if !sleepOrDone(ctx, w.cfg.RetryInterval) {
				return
			}
			continue
		}
		metrics.EntityPostSuccesses.Inc()
		metrics.EventsSuccessfullyPosted.Add(float64(len(action.Entity.Events)))
	}
}

func (w *Worker) postOnce(ctx context.Context, e *timeline.Entity) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.PostDuration)

	var err error
	if w.cfg.V15Enabled {
		err = w.client.PutEntityForAttempt(ctx, attemptIDOf(e), w.cfg.GroupID, e)
	} else {
		err = w.client.PutEntity(ctx, e)
	}
	if err == nil {
		return w.client.Flush(ctx)
	}
	return err
}

func attemptIDOf(e *timeline.Entity) string {
	if id, ok := e.OtherInfo[timeline.InfoAttemptID].(string); ok {
		return id
	}
	return ""
}

func isRejection(err error) bool {
	_, ok := err.(*tlclient.RejectionError)
	return ok
}

// takeOrDone blocks on the queue but also watches ctx, so the worker can be
// unwound on a forced interrupt (spec.md §5 "interruption must unwind all
// blocking calls").
func (w *Worker) takeOrDone(ctx context.Context) (timeline.PostAction, bool) {
	type result struct {
		action timeline.PostAction
	}
	ch := make(chan result, 1)
	go func() { ch <- result{w.queue.Take()} }()

	select {
	case r := <-ch:
		return r.action, true
	case <-ctx.Done():
		return timeline.PostAction{}, false
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
