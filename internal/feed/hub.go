package feed

import "sync"

// Filter restricts which events reach a subscription's callback.  A nil
// filter matches every event on the subscribed table.
type Filter func(ChangeEvent) bool

// Subscription is an open channel onto the hub.  Close is safe to call more
// than once; only the first call detaches the subscription.
type Subscription struct {
	hub    *Hub
	table  string
	id     uint64
	filter Filter
	fn     func(ChangeEvent)
	once   sync.Once
}

// Close detaches the subscription from the hub.  Events published after
// Close returns are not delivered.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s.table, s.id)
	})
}

// Hub is the in-process fan-out point of the change feed.  Publish invokes
// every matching subscriber callback exactly once, synchronously and in
// registration order.  Callbacks must not block; anything slow should hand
// off to its own goroutine.
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]*Subscription // keyed by table
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string][]*Subscription)}
}

// Subscribe registers fn for every change on table, optionally restricted by
// filter.  The returned subscription must be closed when no longer needed.
func (h *Hub) Subscribe(table string, filter Filter, fn func(ChangeEvent)) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	s := &Subscription{hub: h, table: table, id: h.nextID, filter: filter, fn: fn}
	h.subs[table] = append(h.subs[table], s)
	return s
}

// Publish delivers ev to every subscription on ev.Table whose filter accepts
// it.
func (h *Hub) Publish(ev ChangeEvent) {
	h.mu.RLock()
	// Copy the slice header so callbacks can subscribe/unsubscribe without
	// holding the lock through delivery.
	subs := make([]*Subscription, len(h.subs[ev.Table]))
	copy(subs, h.subs[ev.Table])
	h.mu.RUnlock()

	for _, s := range subs {
		if s.filter != nil && !s.filter(ev) {
			continue
		}
		s.fn(ev)
	}
}

// SubscriberCount reports how many open subscriptions exist for table.
func (h *Hub) SubscriberCount(table string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[table])
}

func (h *Hub) remove(table string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.subs[table]
	for i, s := range list {
		if s.id == id {
			h.subs[table] = append(list[:i], list[i+1:]...)
			return
		}
	}
}
