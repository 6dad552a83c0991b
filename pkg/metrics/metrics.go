package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Intake metrics (pkg/intake, spec.md §4.3)
	EventsQueued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atsbridge_events_queued_total",
			Help: "Total number of events seen by process(), including dropped and filtered ones",
		},
	)

	EventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atsbridge_events_dropped_total",
			Help: "Total number of non-lifecycle events dropped due to backpressure",
		},
	)

	FlushCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atsbridge_flush_total",
			Help: "Total number of times the pending-event buffer was flushed into entities",
		},
	)

	// Posting queue metrics (pkg/queue)
	PostQueueEventSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "atsbridge_post_queue_event_size",
			Help: "Sum of event counts across all actions currently in the posting queue",
		},
	)

	PostQueueActions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "atsbridge_post_queue_actions",
			Help: "Number of post actions currently queued",
		},
	)

	// Poster metrics (pkg/poster, spec.md §4.4/§7)
	EntityPostSuccesses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atsbridge_entity_post_successes_total",
			Help: "Total number of entities successfully posted to the timeline server",
		},
	)

	EntityPostFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atsbridge_entity_post_failures_total",
			Help: "Total number of transient post failures (network errors), each retried",
		},
	)

	EntityPostRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atsbridge_entity_post_rejections_total",
			Help: "Total number of permanent server-side rejections, never retried",
		},
	)

	EventsSuccessfullyPosted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atsbridge_events_successfully_posted_total",
			Help: "Total number of individual timeline events successfully posted",
		},
	)

	EntityVersion = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "atsbridge_entity_version",
			Help: "Most recent monotonic entity version produced by this process",
		},
	)

	PostDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "atsbridge_post_duration_seconds",
			Help:    "Time taken for a single putEntities call, successful or not",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Host event bus metrics (pkg/bus)
	BusEventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "atsbridge_bus_events_dropped_total",
			Help: "Total number of bus events dropped because a subscriber's buffer was full",
		},
	)

	// Session/execution tracker metrics (pkg/tracker, spec.md §4.6)
	OnlineSessionNum = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "atsbridge_online_sessions",
			Help: "Number of currently open sessions",
		},
	)

	TotalRunningExecutions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "atsbridge_running_executions",
			Help: "Number of currently running statement executions",
		},
	)
)

func init() {
	prometheus.MustRegister(
		EventsQueued,
		EventsDropped,
		FlushCount,
		PostQueueEventSize,
		PostQueueActions,
		EntityPostSuccesses,
		EntityPostFailures,
		EntityPostRejections,
		EventsSuccessfullyPosted,
		EntityVersion,
		PostDuration,
		BusEventsDropped,
		OnlineSessionNum,
		TotalRunningExecutions,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
