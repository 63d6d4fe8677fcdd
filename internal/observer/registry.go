// Package observer keeps an ordered list of change callbacks keyed by
// opaque tokens.
//
// A callback is removed by the token returned when it was subscribed, never by
// comparing callbacks, so two subscriptions of the same function stay
// independently removable.
package observer

import (
	"sync"

	"github.com/google/uuid"
)

// Token identifies one subscription.
type Token uuid.UUID

// String returns the token in canonical UUID form.
func (t Token) String() string { return uuid.UUID(t).String() }

type entry[T any] struct {
	token Token
	fn    func(T)
}

// Registry is safe for concurrent use. The zero value is ready to use.
type Registry[T any] struct {
	mu      sync.Mutex
	entries []entry[T]

	// qmu guards the delivery queue used by Enqueue and Flush.
	qmu      sync.Mutex
	pending  []T
	flushing bool
}

// Subscribe appends fn and returns its token.
func (r *Registry[T]) Subscribe(fn func(T)) Token {
	token := Token(uuid.New())
	r.mu.Lock()
	r.entries = append(r.entries, entry[T]{token: token, fn: fn})
	r.mu.Unlock()
	return token
}

// Unsubscribe removes the subscription identified by token. It reports
// whether anything was removed; unknown tokens are ignored.
func (r *Registry[T]) Unsubscribe(token Token) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.token == token {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Broadcast calls every subscribed callback with v, in subscription order,
// on the calling goroutine. Callbacks run outside the lock, so they may
// subscribe or unsubscribe; such changes apply from the next broadcast.
func (r *Registry[T]) Broadcast(v T) int {
	r.mu.Lock()
	snapshot := make([]entry[T], len(r.entries))
	copy(snapshot, r.entries)
	r.mu.Unlock()

	for _, e := range snapshot {
		e.fn(v)
	}
	return len(snapshot)
}

// Enqueue queues v for Flush. A store calls it while still holding the lock
// under which v was committed, so the queue follows commit order.
func (r *Registry[T]) Enqueue(v T) {
	r.qmu.Lock()
	r.pending = append(r.pending, v)
	r.qmu.Unlock()
}

// Flush broadcasts every queued value in order and returns the number of
// callbacks run. Only one goroutine flushes at a time: if another one is
// already flushing, Flush returns 0 at once and the active flusher delivers
// the values queued meanwhile, including those committed from inside a
// callback.
func (r *Registry[T]) Flush() (notified int) {
	r.qmu.Lock()
	if r.flushing {
		r.qmu.Unlock()
		return 0
	}
	r.flushing = true

	defer func() {
		// A panicking callback must not leave the queue stuck.
		if p := recover(); p != nil {
			r.qmu.Lock()
			r.flushing = false
			r.qmu.Unlock()
			panic(p)
		}
	}()

	for len(r.pending) > 0 {
		v := r.pending[0]
		var zero T
		r.pending[0] = zero
		r.pending = r.pending[1:]
		r.qmu.Unlock()

		notified += r.Broadcast(v)

		r.qmu.Lock()
	}
	r.pending = nil
	r.flushing = false
	r.qmu.Unlock()
	return notified
}

// Len returns the number of live subscriptions.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Clear drops every subscription and returns how many were dropped.
func (r *Registry[T]) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.entries)
	r.entries = nil
	return n
}
