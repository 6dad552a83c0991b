package tracker

import (
	"github.com/cuemby/atsbridge/pkg/bus"
	"github.com/cuemby/atsbridge/pkg/extension"
	"github.com/cuemby/atsbridge/pkg/sparkevent"
)

func init() {
	extension.Register("session-tracker", newService)
}

// broker, limits, and onApplicationEnd are package-level because
// extension.Factory takes no arguments, mirroring a no-arg-constructor
// plug-in loaded by name (spec.md §4.9); Configure must be called once
// before the extension container is started.
var (
	broker           *bus.Broker
	limits           Limits
	onApplicationEnd func()
)

// Configure binds the session/execution tracker's event source, retention
// limits, and the callback invoked when the tracker observes an
// ApplicationEnd (spec.md §4.6 "onApplicationEnd: stop the server"). Call
// it once during service wiring, before starting the extension container.
func Configure(b *bus.Broker, l Limits, onAppEnd func()) {
	broker = b
	limits = l
	onApplicationEnd = onAppEnd
}

// service adapts Tracker to the extension.Service contract, subscribing to
// the event bus for its lifetime.
type service struct {
	tracker *Tracker
	sub     bus.Subscriber
	done    chan struct{}
}

func newService() extension.Service {
	return &service{}
}

func (s *service) Start(extension.Binding) error {
	s.done = make(chan struct{})
	s.tracker = New(limits, onApplicationEnd)
	s.sub = broker.Subscribe()
	go s.run()
	return nil
}

func (s *service) Stop() error {
	if s.sub != nil {
		broker.Unsubscribe(s.sub)
	}
	close(s.done)
	return nil
}

func (s *service) run() {
	for {
		select {
		case ev, ok := <-s.sub:
			if !ok {
				return
			}
			s.dispatch(ev)
		case <-s.done:
			return
		}
	}
}

func (s *service) dispatch(ev bus.Event) {
	switch e := ev.(type) {
	case sparkevent.SessionCreated:
		s.tracker.OnSessionCreated(SessionInfo{
			SessionID: e.SessionID,
			Start:     e.Start,
			IP:        e.IP,
			User:      e.User,
		})
	case sparkevent.SessionClosed:
		s.tracker.OnSessionClosed(e.SessionID, e.Time)
	case sparkevent.StatementStart:
		s.tracker.OnStatementStart(ExecutionInfo{
			ExecID:    e.ExecID,
			Statement: e.Statement,
			SessionID: e.SessionID,
			Start:     e.Start,
			User:      e.User,
			GroupID:   e.GroupID,
		})
	case sparkevent.StatementParsed:
		s.tracker.OnStatementParsed(e.ExecID, e.Plan)
	case sparkevent.StatementError:
		s.tracker.OnStatementError(e.ExecID, e.Detail, e.Time)
	case sparkevent.StatementFinish:
		s.tracker.OnStatementFinish(e.ExecID, e.Time)
	case sparkevent.JobStart:
		if gid, ok := e.GroupID(); ok {
			s.tracker.OnJobStart(gid, e.JobID)
		}
	case sparkevent.ApplicationEnd:
		s.tracker.OnApplicationEnd()
	}
}
