package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPushDrain(t *testing.T) {
	q := New[int](4)
	assert.True(t, q.Empty())

	q.Push(1, 2, 3)
	assert.Equal(t, 3, q.Len())

	got := q.Drain()
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.True(t, q.Empty())
	assert.Empty(t, q.Drain())
}

func TestDrainN(t *testing.T) {
	q := New[string](0)
	q.Push("a", "b", "c", "d")

	got := q.DrainN(3)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 1, q.Len())

	got = q.DrainN(10)
	assert.Equal(t, []string{"d"}, got)
	assert.True(t, q.Empty())
}

func TestConcurrentPush(t *testing.T) {
	q := New[int](0)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Push(j)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1000, q.Len())
}
