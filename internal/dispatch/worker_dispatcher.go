package dispatch

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Dispatcher hands messages to long-lived worker goroutines.
type Dispatcher[T any] interface {
	// ID identifies the dispatcher in logs.
	ID() string
	// Dispatch enqueues msg. It blocks while the target buffer is full and
	// reports false when the message was not accepted, either because the
	// dispatcher is closed or because a context was cancelled first.
	Dispatch(ctx context.Context, msg T) bool
	// Close stops accepting messages, lets the workers drain what is already
	// buffered and waits for them to exit. Calling Close again is a no-op.
	Close()
}

type workerQueue[T any] struct {
	id      string
	ctx     context.Context
	chs     []chan T
	route   func(T) int
	mu      sync.RWMutex
	closed  bool
	workers sync.WaitGroup
}

func (q *workerQueue[T]) ID() string { return q.id }

func (q *workerQueue[T]) Dispatch(ctx context.Context, msg T) bool {
	// The read lock keeps Close from closing the channels under a pending send.
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed || q.ctx.Err() != nil || ctx.Err() != nil {
		return false
	}

	select {
	case <-ctx.Done():
		return false
	case <-q.ctx.Done():
		return false
	case q.chs[q.route(msg)] <- msg:
		return true
	}
}

func (q *workerQueue[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	for _, ch := range q.chs {
		close(ch)
	}
	q.mu.Unlock()

	q.workers.Wait()
}

func (q *workerQueue[T]) start(handleFn func(context.Context, T)) {
	ready := sync.WaitGroup{}
	for _, ch := range q.chs {
		ready.Add(1)
		q.workers.Add(1)
		go func(ch chan T) {
			defer q.workers.Done()
			ready.Done()
			for {
				select {
				case msg, ok := <-ch:
					if !ok {
						return
					}
					handleFn(q.ctx, msg)
				case <-q.ctx.Done():
					return
				}
			}
		}(ch)
	}
	ready.Wait()
}

// --- single queue ---

// NewSingleQueue starts one worker that handles messages in arrival order.
func NewSingleQueue[T any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, T),
) Dispatcher[T] {
	q := &workerQueue[T]{
		id:    uuid.New().String(),
		ctx:   ctx,
		chs:   []chan T{make(chan T, normalize(bufferSize))},
		route: func(T) int { return 0 },
	}
	q.start(handleFn)
	return q
}

// --- partitioned queue ---

// NewPartitionedQueue starts numWorkers workers. Messages sharing a
// PartitionKey always land on the same worker and are handled in order.
func NewPartitionedQueue[T Partitionable](
	ctx context.Context,
	numWorkers, bufferSize int,
	handleFn func(context.Context, T),
) Dispatcher[T] {
	numWorkers = normalize(numWorkers)
	chs := make([]chan T, numWorkers)
	for i := range chs {
		chs[i] = make(chan T, normalize(bufferSize))
	}
	q := &workerQueue[T]{
		id:  uuid.New().String(),
		ctx: ctx,
		chs: chs,
		route: func(msg T) int {
			return getIndexByHash(msg, numWorkers)
		},
	}
	q.start(handleFn)
	return q
}

func normalize(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}
