// Package tracker implements the session/execution tracker: a parallel
// observer of the event bus that maintains a UI-facing model of open
// sessions and running statement executions (spec.md §4.6 "Session/
// Execution Tracker (UI model)"). It is registered as a built-in extension
// service, not wired into the posting pipeline.
package tracker

import (
	"sync"

	"github.com/cuemby/atsbridge/pkg/metrics"
)

// ExecutionState is the lifecycle state of a statement execution.
type ExecutionState int

const (
	Started ExecutionState = iota
	Compiled
	Failed
	Finished
)

// SessionInfo is the UI-facing record of one client session.
type SessionInfo struct {
	SessionID       string
	Start           int64
	IP              string
	User            string
	FinishTimestamp int64 // 0 while open
	TotalExecution  int
}

// ExecutionInfo is the UI-facing record of one statement execution.
type ExecutionInfo struct {
	ExecID          string
	Statement       string
	SessionID       string
	Start           int64
	User            string
	FinishTimestamp int64
	ExecutePlan     string
	Detail          string
	State           ExecutionState
	JobIDs          []int64
	GroupID         string
}

// Limits bounds how many finished entries each map retains before trimming
// (spec.md §4.6 "Trimming").
type Limits struct {
	SessionLimit   int
	ExecutionLimit int
}

// Tracker is safe for concurrent use; all transition handlers run under a
// single mutex (spec.md §4.6 "under a single monitor").
type Tracker struct {
	limits Limits

	mu          sync.Mutex
	sessionIDs  []string // insertion order
	sessions    map[string]*SessionInfo
	execIDs     []string // insertion order
	executions  map[string]*ExecutionInfo
	onlineNum   int
	running     int
	stopRequest func()
}

// New returns an empty tracker. stopRequest is invoked once when an
// ApplicationEnd is observed (spec.md §4.6 "onApplicationEnd: stop the
// server").
func New(limits Limits, stopRequest func()) *Tracker {
	return &Tracker{
		limits:      limits,
		sessions:    make(map[string]*SessionInfo),
		executions:  make(map[string]*ExecutionInfo),
		stopRequest: stopRequest,
	}
}

// OnSessionCreated inserts a new session (spec.md §4.6).
func (t *Tracker) OnSessionCreated(info SessionInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.sessions[info.SessionID]; !exists {
		t.sessionIDs = append(t.sessionIDs, info.SessionID)
	}
	cp := info
	t.sessions[info.SessionID] = &cp
	t.onlineNum++
	metrics.OnlineSessionNum.Set(float64(t.onlineNum))
	t.trimSessionsLocked()
}

// OnSessionClosed marks a session finished (spec.md §4.6).
func (t *Tracker) OnSessionClosed(sessionID string, finishedAt int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.sessions[sessionID]; ok {
		s.FinishTimestamp = finishedAt
		t.onlineNum--
		metrics.OnlineSessionNum.Set(float64(t.onlineNum))
	}
	t.trimSessionsLocked()
}

// OnStatementStart inserts a new execution (spec.md §4.6).
func (t *Tracker) OnStatementStart(info ExecutionInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.executions[info.ExecID]; !exists {
		t.execIDs = append(t.execIDs, info.ExecID)
	}
	cp := info
	cp.State = Started
	t.executions[info.ExecID] = &cp

	if s, ok := t.sessions[info.SessionID]; ok {
		s.TotalExecution++
	}
	t.running++
	metrics.TotalRunningExecutions.Set(float64(t.running))
	t.trimExecutionsLocked()
}

// OnStatementParsed records the execution plan and moves to Compiled.
func (t *Tracker) OnStatementParsed(execID, plan string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.executions[execID]; ok {
		e.ExecutePlan = plan
		e.State = Compiled
	}
}

// OnStatementError marks an execution Failed (spec.md §4.6).
func (t *Tracker) OnStatementError(execID, detail string, finishedAt int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.executions[execID]; ok {
		e.FinishTimestamp = finishedAt
		e.Detail = detail
		e.State = Failed
		t.running--
		metrics.TotalRunningExecutions.Set(float64(t.running))
	}
	t.trimExecutionsLocked()
}

// OnStatementFinish marks an execution Finished (spec.md §4.6).
func (t *Tracker) OnStatementFinish(execID string, finishedAt int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.executions[execID]; ok {
		e.FinishTimestamp = finishedAt
		e.State = Finished
		t.running--
		metrics.TotalRunningExecutions.Set(float64(t.running))
	}
	t.trimExecutionsLocked()
}

// OnJobStart appends jobID to every execution whose GroupID matches
// groupID (spec.md §4.6 "for every execution whose groupId matches the
// job's group property, append jobId").
func (t *Tracker) OnJobStart(groupID string, jobID int64) {
	if groupID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, e := range t.executions {
		if e.GroupID == groupID {
			e.JobIDs = append(e.JobIDs, jobID)
		}
	}
}

// OnApplicationEnd stops the server (spec.md §4.6).
func (t *Tracker) OnApplicationEnd() {
	if t.stopRequest != nil {
		t.stopRequest()
	}
}

// trimSessionsLocked removes up to max(limit/10, 1) of the oldest finished
// sessions once the map exceeds its retention bound (spec.md §4.6
// "Trimming"), called with t.mu held.
func (t *Tracker) trimSessionsLocked() {
	if t.limits.SessionLimit <= 0 || len(t.sessions) <= t.limits.SessionLimit {
		return
	}
	budget := trimBudget(t.limits.SessionLimit)
	removed := 0
	remaining := t.sessionIDs[:0]
	for _, id := range t.sessionIDs {
		s := t.sessions[id]
		if removed < budget && s != nil && s.FinishTimestamp != 0 {
			delete(t.sessions, id)
			removed++
			continue
		}
		remaining = append(remaining, id)
	}
	t.sessionIDs = remaining
}

func (t *Tracker) trimExecutionsLocked() {
	if t.limits.ExecutionLimit <= 0 || len(t.executions) <= t.limits.ExecutionLimit {
		return
	}
	budget := trimBudget(t.limits.ExecutionLimit)
	removed := 0
	remaining := t.execIDs[:0]
	for _, id := range t.execIDs {
		e := t.executions[id]
		if removed < budget && e != nil && e.State != Started && e.State != Compiled {
			delete(t.executions, id)
			removed++
			continue
		}
		remaining = append(remaining, id)
	}
	t.execIDs = remaining
}

func trimBudget(limit int) int {
	b := limit / 10
	if b < 1 {
		return 1
	}
	return b
}

// Snapshot returns the current online-session and running-execution
// counts, useful for tests and health reporting.
func (t *Tracker) Snapshot() (onlineSessions, runningExecutions int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.onlineNum, t.running
}
