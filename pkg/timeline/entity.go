package timeline

import "strconv"

// Meta carries the application-attempt state the entity builder needs but
// that no single input event fully supplies on its own (spec.md §4.1
// "createTimelineEntity").
type Meta struct {
	AppID           string
	AttemptID       string // empty if the application has no attempt id
	AppName         string
	SparkUser       string
	StartTime       int64
	EndTime         int64 // 0 if the application has not ended yet
	LastUpdated     int64
	EntityVersion   int64
	SparkVersion    string
	GroupInstanceID string // v1.5 execution-group id; empty when unused
	V15Enabled      bool
	Summary         bool // true for the summary entity, false for the detail entity
	StartAppSeen    bool
	EndAppSeen      bool
}

// entityID returns the id a real history server keys this application's
// entities by: the attempt id when the application was run with attempts,
// otherwise the application id itself (spec.md §4.1).
func (m Meta) entityID() string {
	if m.AttemptID != "" {
		return m.AttemptID
	}
	return m.AppID
}

func (m Meta) entityType() string {
	if m.Summary || !m.V15Enabled {
		return EntityTypeSummary
	}
	return EntityTypeDetail
}

// CreateEntity builds the Entity for an application attempt, carrying
// the stable otherInfo/filters fields a history server renders a listing
// from (spec.md §3, §4.1). The given events become the entity's Events.
func CreateEntity(m Meta, events []Event) *Entity {
	info := map[string]interface{}{
		InfoStartTime:     m.StartTime,
		InfoEndTime:       m.EndTime,
		InfoLastUpdated:   m.LastUpdated,
		InfoAppName:       m.AppName,
		InfoAppUser:       m.SparkUser,
		InfoApplicationID: m.AppID,
		InfoAttemptID:     m.AttemptID,
		InfoEntityVersion: strconv.FormatInt(m.EntityVersion, 10),
		InfoSparkVersion:  m.SparkVersion,
	}
	if m.V15Enabled && m.GroupInstanceID != "" {
		info[InfoGroupInstanceID] = m.GroupInstanceID
	}

	filters := map[string][]string{}
	if m.StartAppSeen {
		filters[FilterStartApp] = []string{FilterStartAppValue}
	}
	if m.EndAppSeen {
		filters[FilterEndApp] = []string{FilterEndAppValue}
	}

	return &Entity{
		EntityType: m.entityType(),
		EntityID:   m.entityID(),
		StartTime:  m.StartTime,
		Events:     events,
		OtherInfo:  info,
		Filters:    filters,
	}
}
