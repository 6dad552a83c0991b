package intake

import (
	"testing"
	"time"

	"github.com/cuemby/atsbridge/pkg/clock"
	"github.com/cuemby/atsbridge/pkg/queue"
	"github.com/cuemby/atsbridge/pkg/sparkevent"
	"github.com/cuemby/atsbridge/pkg/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIntakeWithClock(cfg Config, unixMillis int64) (*Intake, *queue.Queue) {
	q := queue.New()
	clk := clock.Fixed{At: time.UnixMilli(unixMillis)}
	return New(cfg, q, clk), q
}

func TestHappyPathBatchFlush(t *testing.T) {
	in, q := newIntakeWithClock(Config{BatchSize: 2, PostQueueCap: 100}, 1000)

	accepted := in.Process(sparkevent.ApplicationStart{AppID: "app-1", Time: 1000})
	require.True(t, accepted)
	in.Process(sparkevent.JobStart{JobID: 7})
	in.Process(sparkevent.JobStart{JobID: 8})

	// ApplicationStart forces an immediate flush (lifecycle push), the
	// second JobStart reaches batchSize=2 and forces a second flush.
	require.Equal(t, 2, q.Len())

	first := q.Take()
	require.False(t, first.IsStop())
	assert.Equal(t, 1, len(first.Entity.Events))
	assert.EqualValues(t, 1000, first.Entity.StartTime)
	assert.EqualValues(t, 0, first.Entity.OtherInfo[timeline.InfoEndTime])
	assert.EqualValues(t, "1", first.Entity.OtherInfo[timeline.InfoEntityVersion])

	second := q.Take()
	assert.Equal(t, 2, len(second.Entity.Events))
	assert.EqualValues(t, "2", second.Entity.OtherInfo[timeline.InfoEntityVersion])
}

func TestDuplicateApplicationStartIsDropped(t *testing.T) {
	in, q := newIntakeWithClock(Config{BatchSize: 100, PostQueueCap: 1000}, 1000)

	in.Process(sparkevent.ApplicationStart{AppID: "app-1", Time: 1000})
	q.Take() // drain the lifecycle flush

	in.Process(sparkevent.ApplicationStart{AppID: "app-2", Time: 2000})
	assert.Equal(t, 0, q.Len())
}

func TestApplicationEndBeforeStartIsDiscarded(t *testing.T) {
	in, q := newIntakeWithClock(Config{BatchSize: 100, PostQueueCap: 1000}, 1000)

	in.Process(sparkevent.ApplicationEnd{Time: 2000})
	assert.Equal(t, 0, q.Len())
}

func TestDuplicateApplicationEndIsDropped(t *testing.T) {
	in, q := newIntakeWithClock(Config{BatchSize: 100, PostQueueCap: 1000}, 1000)

	in.Process(sparkevent.ApplicationStart{AppID: "app-1", Time: 1000})
	q.Take()

	in.Process(sparkevent.ApplicationEnd{Time: 2000})
	q.Take() // first end flush

	in.Process(sparkevent.ApplicationEnd{Time: 3000})
	assert.Equal(t, 0, q.Len())
}

func TestBlockUpdatedAndExecutorMetricsAreNeverBuffered(t *testing.T) {
	in, q := newIntakeWithClock(Config{BatchSize: 1, PostQueueCap: 1000}, 1000)

	in.Process(sparkevent.ApplicationStart{AppID: "app-1", Time: 1000})
	q.Take()

	accepted := in.Process(sparkevent.BlockUpdated{})
	assert.True(t, accepted)
	assert.Equal(t, 0, q.Len())

	accepted = in.Process(sparkevent.ExecutorMetricsUpdate{})
	assert.True(t, accepted)
	assert.Equal(t, 0, q.Len())
}

func TestBackpressureDropsNonLifecycleEventsOverCap(t *testing.T) {
	in, q := newIntakeWithClock(Config{BatchSize: 100, PostQueueCap: 3}, 1000)

	in.Process(sparkevent.ApplicationStart{AppID: "app-1", Time: 1000}) // queued=1, lifecycle
	for i := 0; i < 10; i++ {
		in.Process(sparkevent.JobStart{JobID: int64(i)})
	}

	// Only events while sparkEventsQueued < postQueueLimit(3) are buffered:
	// the start (queued=1) plus job events at queued=2 (<3). At queued=3 the
	// event is dropped since the check is queued < cap.
	assert.Equal(t, 1, q.Len()) // the one lifecycle flush from ApplicationStart's push=true

	entity := q.Take().Entity
	assert.GreaterOrEqual(t, len(entity.Events), 1)
}

func TestProcessReturnsFalseAfterStop(t *testing.T) {
	in, _ := newIntakeWithClock(Config{BatchSize: 100, PostQueueCap: 1000}, 1000)
	in.Stop()

	accepted := in.Process(sparkevent.JobStart{JobID: 1})
	assert.False(t, accepted)
}

func TestPublishPendingEventsNoOpBeforeApplicationStart(t *testing.T) {
	in, q := newIntakeWithClock(Config{BatchSize: 1, PostQueueCap: 1000}, 1000)

	in.Process(sparkevent.JobStart{JobID: 1})
	assert.Equal(t, 0, q.Len())
}

func TestEntityVersionStrictlyIncreasing(t *testing.T) {
	in, q := newIntakeWithClock(Config{BatchSize: 1, PostQueueCap: 1000}, 1000)

	in.Process(sparkevent.ApplicationStart{AppID: "app-1", Time: 1000})
	first := q.Take()
	in.Process(sparkevent.JobStart{JobID: 1})
	second := q.Take()

	assert.Equal(t, "1", first.Entity.OtherInfo[timeline.InfoEntityVersion])
	assert.Equal(t, "2", second.Entity.OtherInfo[timeline.InfoEntityVersion])
}

func TestDomainIDStampedOnEveryEntity(t *testing.T) {
	in, q := newIntakeWithClock(Config{BatchSize: 1, PostQueueCap: 1000, DomainID: "Spark_ATS_app-1"}, 1000)

	in.Process(sparkevent.ApplicationStart{AppID: "app-1", Time: 1000})
	entity := q.Take().Entity

	assert.Equal(t, "Spark_ATS_app-1", entity.DomainID)
}

func TestFlushForcesEnqueueBelowBatchThreshold(t *testing.T) {
	in, q := newIntakeWithClock(Config{BatchSize: 100, PostQueueCap: 1000}, 1000)

	in.Process(sparkevent.ApplicationStart{AppID: "app-1", Time: 1000})
	q.Take() // drain the lifecycle flush

	in.Process(sparkevent.JobStart{JobID: 1})
	assert.Equal(t, 0, q.Len()) // below batchSize=100, no flush yet

	in.Flush()
	require.Equal(t, 1, q.Len())
	assert.Equal(t, 1, len(q.Take().Entity.Events))
}

func TestV15ModeEnqueuesSummaryAndDetailEntities(t *testing.T) {
	in, q := newIntakeWithClock(Config{BatchSize: 1, PostQueueCap: 1000, V15Enabled: true, GroupInstance: "grp-1"}, 1000)

	in.Process(sparkevent.ApplicationStart{AppID: "app-1", Time: 1000})

	require.Equal(t, 2, q.Len())
	summary := q.Take().Entity
	detail := q.Take().Entity

	assert.Equal(t, timeline.EntityTypeSummary, summary.EntityType)
	assert.Equal(t, timeline.EntityTypeDetail, detail.EntityType)
	assert.Equal(t, "grp-1", detail.OtherInfo[timeline.InfoGroupInstanceID])
}
