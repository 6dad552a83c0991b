// Package provider implements the reader-side merge contract: pure
// functions that synthesize an application-history listing from multiple
// entity views (spec.md §4.8 "Provider-side Merge (reader-side
// contract)"). Nothing here performs I/O; it is exercised by whatever
// history-listing endpoint sits in front of the Timeline Server's stored
// entities.
package provider

import "sort"

// AttemptStatus is the completion state this package cares about when
// reconciling with a live resource-manager report (spec.md §4.8
// "completeAppsFromYARN").
type AttemptStatus string

const (
	StatusFinished   AttemptStatus = "FINISHED"
	StatusFailed     AttemptStatus = "FAILED"
	StatusKilled     AttemptStatus = "KILLED"
	StatusIncomplete AttemptStatus = ""
)

func (s AttemptStatus) terminal() bool {
	return s == StatusFinished || s == StatusFailed || s == StatusKilled
}

// AttemptInfo is one application attempt as rendered for a history
// listing. AttemptID is "" for applications run without attempts, standing
// in for the "None" key in spec.md's map.
type AttemptInfo struct {
	AttemptID   string
	Completed   bool
	LastUpdated int64
	FinishTime  int64
	Status      AttemptStatus
}

// ApplicationInfo groups an application id with its attempts.
type ApplicationInfo struct {
	AppID    string
	Attempts []AttemptInfo
}

// MostRecentAttempt prefers the completed attempt; if both or neither are
// completed, it prefers the one with the larger LastUpdated; ties go to b
// (spec.md §4.8 "mostRecentAttempt").
func MostRecentAttempt(a, b AttemptInfo) AttemptInfo {
	if a.Completed != b.Completed {
		if a.Completed {
			return a
		}
		return b
	}
	if a.LastUpdated > b.LastUpdated {
		return a
	}
	return b
}

// MergeAttemptInfoLists builds a map keyed by attempt id (old entries
// first, then latest merged in by MostRecentAttempt or inserted) and
// returns it sorted newest-first by LastUpdated (spec.md §4.8
// "mergeAttemptInfoLists", "Sort attempts newest-first").
func MergeAttemptInfoLists(old, latest []AttemptInfo) []AttemptInfo {
	byID := make(map[string]AttemptInfo, len(old)+len(latest))
	order := make([]string, 0, len(old)+len(latest))

	for _, a := range old {
		if _, exists := byID[a.AttemptID]; !exists {
			order = append(order, a.AttemptID)
		}
		byID[a.AttemptID] = a
	}
	for _, a := range latest {
		if existing, exists := byID[a.AttemptID]; exists {
			byID[a.AttemptID] = MostRecentAttempt(existing, a)
		} else {
			order = append(order, a.AttemptID)
			byID[a.AttemptID] = a
		}
	}

	merged := make([]AttemptInfo, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].LastUpdated > merged[j].LastUpdated
	})
	return merged
}

// mergeAttempts merges two applications' attempt lists under the same
// application id (spec.md §4.8 "combineResults ... on collision,
// mergeAttempts").
func mergeAttempts(a, b ApplicationInfo) ApplicationInfo {
	return ApplicationInfo{
		AppID:    a.AppID,
		Attempts: MergeAttemptInfoLists(a.Attempts, b.Attempts),
	}
}

// CombineResults map-merges two application listings by application id,
// reconciling attempt lists on collision (spec.md §4.8 "combineResults").
func CombineResults(original, latest []ApplicationInfo) []ApplicationInfo {
	byID := make(map[string]ApplicationInfo, len(original)+len(latest))
	order := make([]string, 0, len(original)+len(latest))

	for _, app := range original {
		if _, exists := byID[app.AppID]; !exists {
			order = append(order, app.AppID)
		}
		byID[app.AppID] = app
	}
	for _, app := range latest {
		if existing, exists := byID[app.AppID]; exists {
			byID[app.AppID] = mergeAttempts(existing, app)
		} else {
			order = append(order, app.AppID)
			byID[app.AppID] = app
		}
	}

	combined := make([]ApplicationInfo, 0, len(order))
	for _, id := range order {
		combined = append(combined, byID[id])
	}
	return combined
}

// LiveReport is a cluster resource manager's live view of one application
// attempt, keyed by attempt id in the caller's reportsByID map.
type LiveReport struct {
	Status     AttemptStatus
	FinishTime int64
}

// CompleteAppsFromYARN reconciles incomplete attempts against live
// resource-manager reports (spec.md §4.8 "completeAppsFromYARN"): a
// terminal live report completes the attempt at its finish time; a
// non-terminal live report leaves it incomplete; a missing report
// completes it at LastUpdated only once livenessWindow has elapsed,
// otherwise it is left unchanged.
func CompleteAppsFromYARN(attempts []AttemptInfo, reportsByID map[string]LiveReport, now, livenessWindow int64) []AttemptInfo {
	out := make([]AttemptInfo, len(attempts))
	for i, a := range attempts {
		if a.Completed {
			out[i] = a
			continue
		}

		report, present := reportsByID[a.AttemptID]
		switch {
		case present && report.Status.terminal():
			a.Completed = true
			a.Status = report.Status
			a.FinishTime = report.FinishTime
		case present:
			// live and non-terminal: leave incomplete
		case now-a.LastUpdated > livenessWindow:
			a.Completed = true
			a.FinishTime = a.LastUpdated
		}
		out[i] = a
	}
	return out
}
