// Package bus models the host application's event bus: the external
// collaborator that pumps lifecycle and runtime events into the forwarding
// service. The real host bus is out of scope (spec.md §1 lists it among the
// external collaborators specified only by interface), but a minimal
// in-memory broker is kept here, adapted from pkg/events/events.go's
// cluster event broker, so the sample CLI and the tests have something
// concrete to publish into and subscribe from. The distribution-loop shape
// (buffered eventCh, per-subscriber buffered channel, broadcast under
// RLock) is kept as-is since it already fits a non-blocking producer/
// fan-out bus; Event is generalized from a typed cluster-event struct to
// an opaque payload, and a dropped-subscriber-buffer counter is wired into
// metrics instead of the silent "skip" the original broadcast did.
package bus

import (
	"sync"

	"github.com/cuemby/atsbridge/pkg/metrics"
)

// Event is an opaque payload published by the host application. The
// forwarding service's intake package is the only required subscriber.
type Event interface{}

// Subscriber is a channel that receives events published on the bus.
type Subscriber chan Event

// Broker is a minimal one-way pub/sub pump: Publish feeds subscribers,
// there is no acknowledgement and no backpressure beyond a subscriber's own
// buffer.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[Subscriber]bool
	eventCh     chan Event
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewBroker creates a new event broker.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan Event, 256),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's distribution loop.
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker. Safe to call more than once.
func (b *Broker) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
}

// Subscribe creates a new subscription and returns its channel.
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 128)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscribers[sub] {
		delete(b.subscribers, sub)
		close(sub)
	}
}

// Publish hands an event to the broker's distribution loop. It does not
// block on any subscriber; a full subscriber buffer drops the event for
// that subscriber only.
func (b *Broker) Publish(event Event) {
	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			metrics.BusEventsDropped.Inc()
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
