package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	h := NewHub[int](4)
	a := h.Subscribe()
	b := h.Subscribe()
	require.Equal(t, 2, h.Count())

	delivered, dropped := h.Publish(7)
	assert.Equal(t, 2, delivered)
	assert.Zero(t, dropped)

	assert.Equal(t, 7, <-a.Receive())
	assert.Equal(t, 7, <-b.Receive())
}

func TestSlowSubscriberDropsNotBlocks(t *testing.T) {
	h := NewHub[int](2)
	s := h.Subscribe()

	for i := 0; i < 5; i++ {
		h.Publish(i)
	}

	// the publisher never blocked; the first two values survived
	assert.Equal(t, uint64(3), h.Dropped())
	assert.Equal(t, 0, <-s.Receive())
	assert.Equal(t, 1, <-s.Receive())
	assert.Zero(t, s.Len())
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub[int](1)
	s := h.Subscribe()
	h.Unsubscribe(s)

	_, ok := <-s.Receive()
	assert.False(t, ok)
	assert.Zero(t, h.Count())

	// double unsubscribe is harmless
	h.Unsubscribe(s)
	h.Unsubscribe(nil)
}

func TestCloseShutsDownAll(t *testing.T) {
	h := NewHub[string](1)
	a := h.Subscribe()
	b := h.Subscribe()

	h.Close()

	_, ok := <-a.Receive()
	assert.False(t, ok)
	_, ok = <-b.Receive()
	assert.False(t, ok)

	assert.Nil(t, h.Subscribe())
	delivered, _ := h.Publish("late")
	assert.Zero(t, delivered)

	h.Close() // idempotent
}

func TestMinimalBuffer(t *testing.T) {
	h := NewHub[int](0)
	s := h.Subscribe()
	delivered, _ := h.Publish(1)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, s.Len())
}
