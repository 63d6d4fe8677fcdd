// Package bindings is a small store built from plain values and methods.
//
// Methods work on a copy of the state and the copy replaces the state only
// when the method returns without error. Every commit is broadcast to the
// subscribers in subscription order.
package bindings

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/reganan/icestore/internal/observer"
	"github.com/reganan/icestore/log"
	"github.com/reganan/icestore/metrics"
	"github.com/reganan/icestore/shared/helper"
)

var (
	// ErrUnknownMethod is returned by Call for an undeclared method.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrNoSuchKey is returned by Get for an absent state key.
	ErrNoSuchKey = errors.New("key not found")
	// ErrUnsupportedMethod is returned by FromBindings for a function that
	// does not have the Method signature.
	ErrUnsupportedMethod = errors.New("unsupported method signature")
)

// State holds the plain values of a store.
type State map[string]any

// Method mutates this, a private copy of the state.
type Method func(ctx context.Context, this State, args ...any) error

// BoundMethod runs a Method against the store and returns the bindings after
// the commit.
type BoundMethod func(ctx context.Context, args ...any) (Bindings, error)

// Bindings is a snapshot of the state along with the bound methods.
type Bindings struct {
	State   State
	Methods map[string]BoundMethod
}

// Token identifies a subscription.
type Token = observer.Token

// Store is safe for concurrent use. Methods running concurrently each start
// from the state current when they were called, and the last one to commit
// wins.
type Store struct {
	name    string
	metrics *metrics.Metrics

	mu    sync.RWMutex
	state State

	methods   map[string]BoundMethod
	observers observer.Registry[Bindings]
}

// Option configures a Store.
type Option func(*Store)

// WithName labels the store in logs and metrics.
func WithName(name string) Option {
	return func(s *Store) { s.name = name }
}

// WithMetrics records method runs and broadcasts into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New creates a store from initial state and methods. Both maps are copied.
func New(state State, methods map[string]Method, opts ...Option) *Store {
	s := &Store{
		state:   maps.Clone(state),
		methods: make(map[string]BoundMethod, len(methods)),
	}
	if s.state == nil {
		s.state = State{}
	}
	for _, opt := range opts {
		opt(s)
	}
	for name, fn := range methods {
		s.methods[name] = s.bind(name, fn)
	}
	return s
}

// FromBindings splits a flat set of bindings: every function becomes a
// method, everything else is state. A function whose signature is not that
// of a Method is rejected with ErrUnsupportedMethod.
func FromBindings(b map[string]any, opts ...Option) (*Store, error) {
	state := State{}
	methods := map[string]Method{}
	for key, value := range b {
		switch fn := value.(type) {
		case Method:
			methods[key] = fn
		case func(context.Context, State, ...any) error:
			methods[key] = fn
		default:
			if value != nil && reflect.TypeOf(value).Kind() == reflect.Func {
				return nil, fmt.Errorf("%w: %s is %T", ErrUnsupportedMethod, key, value)
			}
			state[key] = value
		}
	}
	return New(state, methods, opts...), nil
}

func (s *Store) bind(name string, fn Method) BoundMethod {
	return func(ctx context.Context, args ...any) (Bindings, error) {
		settled := s.metrics.RunStarted(s.name, name)
		this := s.State()

		if err := invoke(ctx, fn, this, args); err != nil {
			settled(err)
			log.Effect(ctx, log.LogWarn, "bindings method failed", map[string]interface{}{
				"store":  s.name,
				"method": name,
				"err":    err,
			})
			return Bindings{}, err
		}
		settled(nil)
		return s.commit(this), nil
	}
}

func invoke(ctx context.Context, fn Method, this State, args []any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("method panicked: %v", r)
		}
	}()
	return fn(ctx, this, args...)
}

func (s *Store) commit(next State) Bindings {
	b := s.snapshot(next)

	s.mu.Lock()
	s.state = next
	s.observers.Enqueue(b)
	s.mu.Unlock()

	s.metrics.Broadcast(s.name, "bindings", s.observers.Flush())
	return b
}

func (s *Store) snapshot(state State) Bindings {
	return Bindings{State: maps.Clone(state), Methods: s.methods}
}

// Bindings returns the current state and the bound methods.
func (s *Store) Bindings() Bindings {
	return s.snapshot(s.State())
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.state)
}

// Method returns the bound method name. The same function is returned on
// every call.
func (s *Store) Method(name string) (BoundMethod, bool) {
	m, ok := s.methods[name]
	return m, ok
}

// MethodNames lists the methods in lexical order.
func (s *Store) MethodNames() []string {
	return slices.Sorted(maps.Keys(s.methods))
}

// Call runs the bound method name.
func (s *Store) Call(ctx context.Context, name string, args ...any) (Bindings, error) {
	m, ok := s.methods[name]
	if !ok {
		return Bindings{}, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
	}
	return m(ctx, args...)
}

// Subscribe calls fn after every commit. Callbacks run one at a time in
// commit order, possibly on the goroutine of another caller's commit.
func (s *Store) Subscribe(fn func(Bindings)) Token {
	return s.observers.Subscribe(fn)
}

// Unsubscribe removes a subscription. Unknown tokens are ignored.
func (s *Store) Unsubscribe(token Token) {
	s.observers.Unsubscribe(token)
}

// UseStore subscribes fn and returns the current bindings along with a
// function that removes the subscription.
func (s *Store) UseStore(fn func(Bindings)) (Bindings, func()) {
	token := s.Subscribe(fn)
	return s.Bindings(), func() { s.Unsubscribe(token) }
}

// Get reads key from the current state as a T.
func Get[T any](s *Store, key string) (T, error) {
	return helper.GetTypedValueOf[T](func() (any, error) {
		s.mu.RLock()
		v, ok := s.state[key]
		s.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoSuchKey, key)
		}
		return v, nil
	})
}
