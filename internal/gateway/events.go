package gateway

import (
	"sync"
	"time"
)

// InvalidationEvent is published once for every 401 the backend returns.
type InvalidationEvent struct {
	// SessionID names the login that was cleared. Other sessions of the
	// same user are unaffected.
	SessionID string
	// UserID is the session's user at the time the request was sent.
	UserID string
	Method string
	URL    string
	At     time.Time
}

// InvalidationBus fans session-invalidated signals out to whoever
// turns them into navigation or teardown.
type InvalidationBus struct {
	mu          sync.RWMutex
	nextID      int
	subscribers map[int]func(InvalidationEvent)
	order       []int
}

func NewInvalidationBus() *InvalidationBus {
	return &InvalidationBus{subscribers: make(map[int]func(InvalidationEvent))}
}

// Subscribe registers fn and returns a function that removes it.
func (b *InvalidationBus) Subscribe(fn func(InvalidationEvent)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subscribers[id] = fn
	b.order = append(b.order, id)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subscribers, id)
		for i, v := range b.order {
			if v == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

// Publish calls every subscriber synchronously in subscription order.
func (b *InvalidationBus) Publish(ev InvalidationEvent) {
	b.mu.RLock()
	fns := make([]func(InvalidationEvent), 0, len(b.order))
	for _, id := range b.order {
		fns = append(fns, b.subscribers[id])
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
