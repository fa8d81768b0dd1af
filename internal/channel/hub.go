// Package channel provides the fan-out hub that delivers snapshots from the
// tick loop to observers without ever blocking the loop.
package channel

import (
	"sync"
	"sync/atomic"
)

// Subscription is one observer's feed. The channel is closed when the
// subscription is cancelled or the hub shuts down.
type Subscription[T any] struct {
	id uint64
	ch chan T
}

// Receive returns the observer's channel.
func (s *Subscription[T]) Receive() <-chan T {
	return s.ch
}

// Len returns the number of undelivered items in the observer's buffer.
func (s *Subscription[T]) Len() int {
	return len(s.ch)
}

// Hub broadcasts published values to every subscriber. Each subscriber gets
// its own buffer; a subscriber that stops draining loses values instead of
// stalling the publisher.
type Hub[T any] struct {
	mu      sync.RWMutex
	subs    map[uint64]chan T
	nextID  uint64
	buffer  int
	closed  bool
	dropped atomic.Uint64
}

// NewHub creates a hub whose subscribers each get a buffer of the given
// size. Non-positive sizes get a minimal buffer of 1.
func NewHub[T any](buffer int) *Hub[T] {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub[T]{
		subs:   make(map[uint64]chan T),
		buffer: buffer,
	}
}

// Subscribe registers a new observer. Returns nil if the hub is closed.
func (h *Hub[T]) Subscribe() *Subscription[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.nextID++
	ch := make(chan T, h.buffer)
	h.subs[h.nextID] = ch
	return &Subscription[T]{id: h.nextID, ch: ch}
}

// Unsubscribe removes an observer and closes its channel. Safe to call with
// an already-removed subscription.
func (h *Hub[T]) Unsubscribe(s *Subscription[T]) {
	if s == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[s.id]; ok {
		delete(h.subs, s.id)
		close(ch)
	}
}

// Publish delivers v to every subscriber without blocking. Returns how many
// observers received the value and how many had a full buffer.
func (h *Hub[T]) Publish(v T) (delivered, dropped int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return 0, 0
	}
	for _, ch := range h.subs {
		select {
		case ch <- v:
			delivered++
		default:
			dropped++
		}
	}
	h.dropped.Add(uint64(dropped))
	return delivered, dropped
}

// Count returns the number of active subscribers.
func (h *Hub[T]) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns the total number of values lost to full observer buffers.
func (h *Hub[T]) Dropped() uint64 {
	return h.dropped.Load()
}

// Close shuts the hub down and closes every subscriber channel. Publishing
// after Close is a no-op.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
