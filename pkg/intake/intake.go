// Package intake implements the single entry point that accepts events from
// the host event bus, classifies and buffers them, and flushes them into
// timeline entities on the posting queue (spec.md §4.3 "Event Intake &
// Policy").
package intake

import (
	"sync"
	"sync/atomic"

	"github.com/cuemby/atsbridge/pkg/buffer"
	"github.com/cuemby/atsbridge/pkg/clock"
	"github.com/cuemby/atsbridge/pkg/log"
	"github.com/cuemby/atsbridge/pkg/metrics"
	"github.com/cuemby/atsbridge/pkg/queue"
	"github.com/cuemby/atsbridge/pkg/sparkevent"
	"github.com/cuemby/atsbridge/pkg/timeline"
)

// Config holds the intake policy knobs (spec.md §6).
type Config struct {
	BatchSize     int
	PostQueueCap  int // postQueueLimit: absolute queued-event cap
	SparkVersion  string
	V15Enabled    bool
	GroupInstance string
	DomainID      string // "" if domain creation was skipped or failed
}

// Intake is the process() entry point plus the flush logic that feeds the
// posting queue. One Intake exists per application attempt.
type Intake struct {
	cfg   Config
	clock clock.Clock
	queue *queue.Queue

	pending *buffer.Pending

	mu   sync.Mutex
	meta timeline.Meta

	eventsQueued int64 // atomic: sparkEventsQueued
	version      int64 // atomic: monotonic entity version
	stopped      atomic.Bool
}

// New returns an Intake for a fresh application attempt.
func New(cfg Config, q *queue.Queue, clk clock.Clock) *Intake {
	return &Intake{
		cfg:     cfg,
		clock:   clk,
		queue:   q,
		pending: buffer.New(),
	}
}

// Process is the process(event) -> bool entry point (spec.md §4.3). It
// returns false iff the intake is no longer accepting events.
func (in *Intake) Process(event interface{}) bool {
	if in.stopped.Load() {
		return false
	}

	queued := atomic.AddInt64(&in.eventsQueued, 1)
	metrics.EventsQueued.Inc()
	if queued%1000 == 0 {
		log.WithComponent("intake").Debug().Int64("count", queued).Msg("processed events")
	}

	now := in.clock.Now().UnixMilli()
	te, ok := timeline.ToEvent(event, now)
	if !ok {
		return true // BlockUpdated, ExecutorMetricsUpdate: publish=false
	}

	in.mu.Lock()
	publish, isLifecycle, push := in.classifyLocked(event, te)
	in.mu.Unlock()

	if !publish {
		return true
	}

	if isLifecycle || queued < int64(in.cfg.PostQueueCap) {
		count := in.pending.AddAndLen(te)
		if push || count >= in.cfg.BatchSize {
			in.publishPendingEvents()
		}
	} else {
		metrics.EventsDropped.Inc()
	}
	return true
}

// classifyLocked applies the event-classification table (spec.md §4.3 step
// 2) against the current attempt Meta, held under in.mu. It reports
// whether the event should be published at all, whether it is a lifecycle
// event (bypasses the backpressure drop policy), and whether it forces an
// immediate flush.
func (in *Intake) classifyLocked(event interface{}, te timeline.Event) (publish, isLifecycle, push bool) {
	switch e := event.(type) {
	case sparkevent.ApplicationStart:
		if in.meta.StartAppSeen {
			return false, false, false // not first-seen: drop without publishing
		}
		in.meta.AppID = e.AppID
		in.meta.AttemptID = e.AttemptID
		in.meta.AppName = e.AppName
		in.meta.SparkUser = e.SparkUser
		in.meta.StartTime = te.Timestamp
		in.meta.StartAppSeen = true
		return true, true, true

	case sparkevent.ApplicationEnd:
		if !in.meta.StartAppSeen {
			log.WithComponent("intake").Error().Msg("ApplicationEnd received with no ApplicationStart seen; discarding")
			return false, false, false
		}
		if in.meta.EndAppSeen {
			return false, false, false
		}
		in.meta.EndTime = te.Timestamp
		in.meta.EndAppSeen = true
		return true, true, true

	default:
		return true, false, false
	}
}

// publishPendingEvents drains the pending buffer into one or more timeline
// entities and enqueues them (spec.md §4.3 "publishPendingEvents()"). It is
// a no-op when the buffer is empty or no ApplicationStart has been seen
// yet.
func (in *Intake) publishPendingEvents() {
	in.mu.Lock()
	if !in.meta.StartAppSeen {
		in.mu.Unlock()
		return
	}
	in.mu.Unlock()

	events := in.pending.Drain()
	if events == nil {
		return
	}

	in.mu.Lock()
	in.meta.LastUpdated = in.clock.Now().UnixMilli()
	in.meta.EntityVersion = atomic.AddInt64(&in.version, 1)
	in.meta.SparkVersion = in.cfg.SparkVersion
	in.meta.V15Enabled = in.cfg.V15Enabled
	in.meta.GroupInstanceID = in.cfg.GroupInstance
	m := in.meta
	in.mu.Unlock()

	metrics.FlushCount.Inc()
	metrics.EntityVersion.Set(float64(m.EntityVersion))

	summary := m
	summary.Summary = true
	in.enqueue(timeline.CreateEntity(summary, events))

	if m.V15Enabled {
		detail := m
		detail.Summary = false
		in.enqueue(timeline.CreateEntity(detail, events))
	}
}

// enqueue pre-flight checks an entity (startTime must be non-zero) before
// handing it to the posting queue (spec.md §4.1 invariant).
func (in *Intake) enqueue(entity *timeline.Entity) {
	if entity.StartTime == 0 {
		entity.StartTime = in.clock.Now().UnixMilli()
	}
	entity.DomainID = in.cfg.DomainID
	in.queue.PushBack(timeline.NewPostEntity(entity))
}

// Flush forces any currently buffered events into an entity and enqueues
// it, independent of batch threshold or lifecycle events. The lifecycle
// controller calls this during stop() (spec.md §4.5 step 3, "Call
// publishPendingEvents() (async-flush)") so nothing buffered since the last
// threshold flush is lost ahead of the shutdown drain.
func (in *Intake) Flush() {
	in.publishPendingEvents()
}

// Stop marks the intake as no longer accepting events; further Process
// calls return false (spec.md §4.4 "this also sets postingQueueStopped").
func (in *Intake) Stop() {
	in.stopped.Store(true)
}
