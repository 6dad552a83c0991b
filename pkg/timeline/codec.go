package timeline

import (
	"reflect"

	"github.com/cuemby/atsbridge/pkg/sparkevent"
)

// Event type tags, part of the stable wire contract (spec.md §4.1): events
// recognized by the intake classifier carry the literal listener-event name
// a real history server expects, not a Go type name.
const (
	TypeApplicationStart = "SparkListenerApplicationStart"
	TypeApplicationEnd   = "SparkListenerApplicationEnd"
	TypeJobStart         = "SparkListenerJobStart"
)

// ToEvent translates a recognized input event into its wire Event, at the
// given receipt timestamp (used when the event itself carries no Time).
// The second return value is false for events the intake classifier drops
// before they ever reach the buffer (spec.md §4.1, §4.3).
func ToEvent(in interface{}, receivedAt int64) (Event, bool) {
	switch e := in.(type) {
	case sparkevent.ApplicationStart:
		ts := e.Time
		if ts == 0 {
			ts = receivedAt
		}
		return Event{
			Type:      TypeApplicationStart,
			Timestamp: ts,
			Payload: map[string]interface{}{
				"appId":     e.AppID,
				"attemptId": e.AttemptID,
				"appName":   e.AppName,
				"sparkUser": e.SparkUser,
			},
		}, true

	case sparkevent.ApplicationEnd:
		ts := e.Time
		if ts == 0 {
			ts = receivedAt
		}
		return Event{Type: TypeApplicationEnd, Timestamp: ts}, true

	case sparkevent.JobStart:
		payload := map[string]interface{}{"jobId": e.JobID}
		if gid, ok := e.GroupID(); ok {
			payload["jobGroupId"] = gid
		}
		return Event{Type: TypeJobStart, Timestamp: receivedAt, Payload: payload}, true

	case sparkevent.BlockUpdated, sparkevent.ExecutorMetricsUpdate:
		return Event{}, false

	case sparkevent.Named:
		return Event{Type: e.EventName(), Timestamp: receivedAt}, true

	default:
		return Event{Type: reflect.TypeOf(in).String(), Timestamp: receivedAt}, true
	}
}
