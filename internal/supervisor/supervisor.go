// Package supervisor runs detached goroutines and lets their owner join them.
package supervisor

import (
	"context"
	"sync"

	"github.com/reganan/icestore/log"
)

// Supervisor tracks spawned goroutines and outstanding reservations.
//
// Children never see the owner's cancellation: they run on a context
// detached from the one passed to Go, and nothing aborts them early.
//
// Track, Go and Wait may be called concurrently; Wait returns whenever the
// count of running children and open reservations drops to zero.
type Supervisor struct {
	mu      sync.Mutex
	settled *sync.Cond
	active  int
}

// New returns an empty supervisor.
func New() *Supervisor {
	s := &Supervisor{}
	s.settled = sync.NewCond(&s.mu)
	return s
}

func (s *Supervisor) add() {
	s.mu.Lock()
	s.active++
	s.mu.Unlock()
}

func (s *Supervisor) done() {
	s.mu.Lock()
	s.active--
	if s.active == 0 {
		s.settled.Broadcast()
	}
	s.mu.Unlock()
}

// Track reserves a slot for work that will be spawned later (or dropped).
// The returned release must be called exactly once; extra calls are ignored.
func (s *Supervisor) Track() (release func()) {
	s.add()
	var once sync.Once
	return func() {
		once.Do(s.done)
	}
}

// Go starts each function in its own goroutine.
//   - Each child gets a context that keeps ctx's values but not its cancellation.
//   - Panics are recovered and logged through ctx.
//   - Go returns once every child has been started.
func (s *Supervisor) Go(ctx context.Context, fns ...func(context.Context)) {
	childCtx := context.WithoutCancel(ctx)
	ready := sync.WaitGroup{}

	for _, fn := range fns {
		s.add()
		ready.Add(1)
		go func(f func(context.Context)) {
			defer s.done()
			defer func() {
				if r := recover(); r != nil {
					log.Effect(ctx, log.LogError, "panic in child routine", map[string]interface{}{
						"error": r,
					})
				}
			}()
			ready.Done()
			f(childCtx)
		}(fn)
	}

	// Wait until all child goroutines have been started before returning
	ready.Wait()
}

// Wait blocks until every child has returned and every reservation has been
// released.
func (s *Supervisor) Wait() {
	s.mu.Lock()
	for s.active > 0 {
		s.settled.Wait()
	}
	s.mu.Unlock()
}

// WaitContext is Wait bounded by ctx.
func (s *Supervisor) WaitContext(ctx context.Context) error {
	waitCh := make(chan struct{})
	go func() {
		s.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
