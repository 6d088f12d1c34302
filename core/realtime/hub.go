// Package realtime maintains the set of live subscriber connections and
// fans state-change events out to them. Delivery is best-effort; the hub
// never blocks a mutation and never surfaces send failures to it.
package realtime

import (
	"sync"

	"github.com/fleetops/dispatchd/core/events"
	"github.com/fleetops/dispatchd/core/logger"
	"github.com/fleetops/dispatchd/core/metrics"
)

// Subscriber is one connected client. Send must bound its own blocking
// time (the websocket adapter applies a write deadline); a failed send
// marks the subscriber dead.
type Subscriber interface {
	Send(events.Event) error
}

// Hub owns the subscriber set. Membership changes and the sweep snapshot
// share one mutex so the set cannot change shape mid-sweep; the sends
// themselves happen outside the lock so a slow delivery does not block
// new connections.
type Hub struct {
	mu   sync.Mutex
	subs map[Subscriber]struct{}

	log  logger.Logger
	sink metrics.Sink
}

// NewHub returns an empty hub.
func NewHub(log logger.Logger, sink metrics.Sink) *Hub {
	if log == nil {
		log = logger.NopLogger{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Hub{subs: map[Subscriber]struct{}{}, log: log, sink: sink}
}

// Connect adds s to the subscriber set.
func (h *Hub) Connect(s Subscriber) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()
	h.sink.RecordSubscribers(n)
	h.log.Debugf("subscriber connected, %d active", n)
}

// Disconnect removes s. Removing an absent subscriber is a no-op.
func (h *Hub) Disconnect(s Subscriber) {
	h.mu.Lock()
	delete(h.subs, s)
	n := len(h.subs)
	h.mu.Unlock()
	h.sink.RecordSubscribers(n)
}

// Len reports the current subscriber count.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Broadcast delivers ev to every subscriber present when the sweep
// starts. Subscribers whose send fails are pruned after the sweep; one
// bad connection never drops delivery to the others.
func (h *Hub) Broadcast(ev events.Event) {
	h.mu.Lock()
	snapshot := make([]Subscriber, 0, len(h.subs))
	for s := range h.subs {
		snapshot = append(snapshot, s)
	}
	h.mu.Unlock()

	if len(snapshot) == 0 {
		return
	}
	var dead []Subscriber
	for _, s := range snapshot {
		if err := s.Send(ev); err != nil {
			h.log.Warnf("drop subscriber: send %s failed: %v", ev.Type, err)
			dead = append(dead, s)
		}
	}
	if len(dead) > 0 {
		h.mu.Lock()
		for _, s := range dead {
			delete(h.subs, s)
		}
		n := len(h.subs)
		h.mu.Unlock()
		h.sink.RecordSubscribers(n)
	}
	h.sink.RecordBroadcast(len(snapshot)-len(dead), len(dead))
}
