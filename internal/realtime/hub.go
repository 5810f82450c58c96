// Package realtime provides an in-process change feed. Services publish an
// event after every confirmed write; consumers subscribe per topic and
// receive callbacks until they invoke the returned unsubscribe function.
package realtime

import (
	"sync"
)

const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

type Event struct {
	Topic   string `json:"topic"`
	Kind    string `json:"kind"`
	ID      string `json:"id"`
	Payload any    `json:"payload,omitempty"`
}

// Topic names. Per-user feeds append the user id, e.g. TopicCart + userID.
const (
	TopicCart     = "cart:"
	TopicOrders   = "orders:"
	TopicAllOrder = "orders"
	TopicProducts = "products"
)

type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func(Event)
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]func(Event))}
}

// Subscribe registers fn for topic and returns the disposer that removes the
// subscription. Callbacks are invoked synchronously on the publishing
// goroutine and must not block. Calling the disposer more than once is
// harmless.
func (h *Hub) Subscribe(topic string, fn func(Event)) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[topic] == nil {
		h.subs[topic] = make(map[int]func(Event))
	}
	id := h.nextID
	h.nextID++
	h.subs[topic][id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[topic], id)
		if len(h.subs[topic]) == 0 {
			delete(h.subs, topic)
		}
	}
}

func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	fns := make([]func(Event), 0, len(h.subs[ev.Topic]))
	for _, fn := range h.subs[ev.Topic] {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
