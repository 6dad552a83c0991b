// Package timeline holds the wire-level entity model posted to the remote
// Timeline Server (spec.md §3 "TimelineEvent"/"TimelineEntity"/
// "TimelineDomain"/"PostAction") and the pure codec that builds it from
// input events and buffered state.
package timeline

import "time"

// Event is a single typed, timestamped fact inside an Entity.
type Event struct {
	Type      string                 `json:"type"`
	Timestamp int64                  `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// Entity is the server-side aggregate keyed by (EntityType, EntityID).
type Entity struct {
	EntityType string                 `json:"entityType"`
	EntityID   string                 `json:"entityId"`
	StartTime  int64                  `json:"startTime"`
	Events     []Event                `json:"events"`
	OtherInfo  map[string]interface{} `json:"otherinfo"`
	Filters    map[string][]string    `json:"primaryfilters,omitempty"`
	DomainID   string                 `json:"domainId,omitempty"`
}

// Domain is a named ACL namespace holding entities.
type Domain struct {
	ID      string `json:"id"`
	Readers string `json:"readers"`
	Writers string `json:"writers"`
}

// otherInfo keys, part of the stable wire contract (spec.md §6).
const (
	InfoStartTime       = "startTime"
	InfoEndTime         = "endTime"
	InfoLastUpdated     = "lastUpdated"
	InfoAppName         = "appName"
	InfoAppUser         = "appUser"
	InfoApplicationID   = "applicationId"
	InfoAttemptID       = "attemptId"
	InfoEntityVersion   = "entityVersion"
	InfoSparkVersion    = "sparkVersion"
	InfoGroupInstanceID = "groupInstanceId"
)

// Filter keys and values, part of the stable wire contract (spec.md §3).
const (
	FilterStartApp      = "startApp"
	FilterEndApp        = "endApp"
	FilterStartAppValue = "SparkListenerApplicationStart"
	FilterEndAppValue   = "SparkListenerApplicationEnd"
)

// Entity type strings, part of the stable wire contract (spec.md §4.1).
const (
	EntityTypeSummary = "spark_event_v01"
	EntityTypeDetail  = "spark_event_v01_detail"
)

// PostAction is the tagged union enqueued on the posting queue
// (spec.md §3 "PostAction"). Exactly one of PostEntity/StopQueue is set.
type PostAction struct {
	Entity *Entity
	Stop   *StopQueue
}

// StopQueue signals the poster to drain and exit.
type StopQueue struct {
	EnqueuedAt time.Time
	WaitMillis int64
}

// TimeLimit returns the wall-clock deadline by which the shutdown drain
// must finish.
func (s StopQueue) TimeLimit() time.Time {
	return s.EnqueuedAt.Add(time.Duration(s.WaitMillis) * time.Millisecond)
}

// NewPostEntity wraps an entity as a post action.
func NewPostEntity(e *Entity) PostAction {
	return PostAction{Entity: e}
}

// NewStopQueue wraps a stop signal as a post action.
func NewStopQueue(enqueuedAt time.Time, waitMillis int64) PostAction {
	return PostAction{Stop: &StopQueue{EnqueuedAt: enqueuedAt, WaitMillis: waitMillis}}
}

// IsStop reports whether this action is the StopQueue sentinel.
func (a PostAction) IsStop() bool { return a.Stop != nil }

// Size is the number of events this action contributes to the posting
// queue's event-size invariant (spec.md §3 "postingQueueEventSize").
func (a PostAction) Size() int {
	if a.Entity == nil {
		return 0
	}
	return len(a.Entity.Events)
}
