package bus

import (
	"log/slog"
	"sync"
)

type Handler func(payload any)

// Bus is a small synchronous in-process event bus. The sync core and the UI
// layers talk to each other only through topics on this bus, never directly.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler // topic -> subscription id -> handler
}

func New() *Bus {
	return &Bus{subs: make(map[string]map[int]Handler)}
}

// Subscribe registers a handler for a topic and returns a subscription id
// usable with Unsubscribe.
func (b *Bus) Subscribe(topic string, fn Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	b.nextID++
	b.subs[topic][b.nextID] = fn
	return b.nextID
}

func (b *Bus) Unsubscribe(topic string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subs, ok := b.subs[topic]; ok {
		if _, exists := subs[id]; !exists {
			slog.Warn("Did not find subscription to remove", "topic", topic, "id", id)
		}
		delete(subs, id)
		if len(subs) == 0 {
			delete(b.subs, topic)
		}
	}
}

// Publish delivers payload to every handler subscribed to topic. Handlers run
// synchronously on the caller's goroutine, in no particular order.
func (b *Bus) Publish(topic string, payload any) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, fn := range b.subs[topic] {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(payload)
	}
	slog.Debug("Event published", "topic", topic, "subscribers", len(handlers))
}
