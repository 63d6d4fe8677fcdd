package observer_test

import (
	"testing"
	"time"

	"github.com/reganan/icestore/internal/observer"
	"github.com/stretchr/testify/assert"
)

func TestRegistry_BroadcastReachesAllInOrder(t *testing.T) {
	var r observer.Registry[int]
	var got []string

	r.Subscribe(func(v int) { got = append(got, "a") })
	r.Subscribe(func(v int) { got = append(got, "b") })
	r.Subscribe(func(v int) { got = append(got, "c") })

	assert.Equal(t, 3, r.Broadcast(1))
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestRegistry_UnsubscribeIsTokenScopedAndIdempotent(t *testing.T) {
	var r observer.Registry[int]
	calls := 0
	fn := func(int) { calls++ }

	first := r.Subscribe(fn)
	second := r.Subscribe(fn)
	assert.NotEqual(t, first, second)

	assert.True(t, r.Unsubscribe(first))
	assert.False(t, r.Unsubscribe(first), "second removal must be a no-op")
	assert.Equal(t, 1, r.Len())

	r.Broadcast(0)
	assert.Equal(t, 1, calls, "the other subscription of the same func stays attached")

	assert.True(t, r.Unsubscribe(second))
	r.Broadcast(0)
	assert.Equal(t, 1, calls)
}

func TestRegistry_CallbackMayUnsubscribeItself(t *testing.T) {
	var r observer.Registry[string]
	var token observer.Token
	calls := 0
	token = r.Subscribe(func(string) {
		calls++
		r.Unsubscribe(token)
	})

	r.Broadcast("x")
	r.Broadcast("y")
	assert.Equal(t, 1, calls)
	assert.Zero(t, r.Len())
}

func TestRegistry_Clear(t *testing.T) {
	var r observer.Registry[int]
	r.Subscribe(func(int) {})
	r.Subscribe(func(int) {})

	assert.Equal(t, 2, r.Clear())
	assert.Zero(t, r.Broadcast(1))
}

func TestRegistry_FlushDeliversInEnqueueOrder(t *testing.T) {
	var r observer.Registry[int]
	var got []int
	r.Subscribe(func(v int) { got = append(got, v) })

	r.Enqueue(1)
	r.Enqueue(2)
	r.Enqueue(3)
	assert.Equal(t, 3, r.Flush())
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Zero(t, r.Flush(), "queue is empty")
}

func TestRegistry_FlushFromCallbackIsDeliveredAfterCurrentValue(t *testing.T) {
	var r observer.Registry[int]
	var got []int
	r.Subscribe(func(v int) {
		got = append(got, v)
		if v == 1 {
			r.Enqueue(2)
			assert.Zero(t, r.Flush(), "the outer flush delivers it")
		}
	})

	r.Enqueue(1)
	assert.Equal(t, 2, r.Flush())
	assert.Equal(t, []int{1, 2}, got)
}

func TestRegistry_ConcurrentFlushKeepsOrder(t *testing.T) {
	var r observer.Registry[int]
	entered := make(chan struct{})
	release := make(chan struct{})
	delivered := make(chan int, 2)
	r.Subscribe(func(v int) {
		if v == 1 {
			close(entered)
			<-release
		}
		delivered <- v
	})

	flushed := make(chan int, 1)
	r.Enqueue(1)
	go func() { flushed <- r.Flush() }()

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("first delivery did not start")
	}

	r.Enqueue(2)
	assert.Zero(t, r.Flush(), "another goroutine is flushing")
	close(release)

	select {
	case n := <-flushed:
		assert.Equal(t, 2, n)
	case <-time.After(time.Second):
		t.Fatal("flush did not finish")
	}
	assert.Equal(t, 1, <-delivered)
	assert.Equal(t, 2, <-delivered)
}

func TestRegistry_PanickingCallbackDoesNotStallQueue(t *testing.T) {
	var r observer.Registry[int]
	var got []int
	r.Subscribe(func(v int) {
		if v == 1 {
			panic("boom")
		}
		got = append(got, v)
	})

	r.Enqueue(1)
	r.Enqueue(2)
	assert.Panics(t, func() { r.Flush() })
	assert.Equal(t, 1, r.Flush())
	assert.Equal(t, []int{2}, got)
}
