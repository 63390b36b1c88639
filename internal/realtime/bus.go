// Package realtime fans push events out to any number of subscribers. It
// replaces a single last-registered socket handler: the coordinator and the
// wallet feed each hold their own subscription and can unsubscribe without
// clobbering one another.
package realtime

import (
	"encoding/json"
	"log"
	"sync"
)

// Event is one push frame from the relay: a type tag and its raw payload.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Event types delivered by the payment relay.
const (
	EventPaymentComplete = "payment-complete"
	EventPaymentError    = "payment-error"
)

const subscriberBuffer = 16

type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[int]chan Event
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]chan Event)}
}

// Subscribe returns a channel receiving every event of the given type and a
// cancel function that removes the subscription and closes the channel.
func (b *Bus) Subscribe(eventType string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[eventType] == nil {
		b.subs[eventType] = make(map[int]chan Event)
	}
	id := b.next
	b.next++
	b.subs[eventType][id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if sub, ok := b.subs[eventType][id]; ok {
			delete(b.subs[eventType], id)
			close(sub)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to all subscribers of its type without
// blocking; a subscriber whose buffer is full misses the event.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[evt.Type] {
		select {
		case ch <- evt:
		default:
			log.Printf("[realtime] WARN: dropping %s event for slow subscriber", evt.Type)
		}
	}
}
