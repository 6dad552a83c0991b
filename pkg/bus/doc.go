/*
Package bus provides an in-memory stand-in for the host application's event
bus.

atsbridge does not own the host application's event dispatch thread — spec.md
§1 and §5 describe it as an external collaborator that calls process(event)
from its own thread. This package exists only so the sample CLI (cmd/atsbridge)
and the test suite have a concrete one-way publish/subscribe pump to drive
events through the forwarding service without pulling in a real host
application.

# Architecture

	┌──────────────── HOST APPLICATION (simulated) ──────────────┐
	│                                                              │
	│  bus.NewBroker(); broker.Start()                            │
	│  broker.Publish(ApplicationStart{...})                      │
	│                                                              │
	└──────────────────────────┬───────────────────────────────────┘
	                           │ buffered channel (256)
	                           ▼
	                  ┌─────────────────┐
	                  │  broadcast loop  │
	                  └────────┬─────────┘
	                           │ per-subscriber channel (128)
	                           ▼
	               intake.Intake.Process(event)

Publish never blocks on a slow subscriber: each subscriber has its own
bounded channel, and a full channel drops the event for that one
subscriber and counts the drop in metrics.BusEventsDropped. This mirrors the bus's own non-blocking contract — the
forwarding service's backpressure policy (spec.md §4.3) is a separate,
deliberate concern implemented in pkg/intake, not an accident of a full
channel here.
*/
package bus
