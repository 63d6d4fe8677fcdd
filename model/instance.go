package model

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/reganan/icestore/internal/dispatch"
	"github.com/reganan/icestore/internal/observer"
	"github.com/reganan/icestore/internal/supervisor"
	"github.com/reganan/icestore/internal/versions"
	"github.com/reganan/icestore/log"
	"github.com/rickb777/date/v2/timespan"
)

// EffectState is the loading/error status of one effect.
type EffectState struct {
	IsLoading bool
	Error     error
	// Span covers the last settled run, from start to settle.
	Span timespan.TimeSpan
}

// EffectStatus maps effect names to their status. Maps handed out by an
// Instance are never modified afterwards.
type EffectStatus map[string]EffectState

// CallRecord is the latest dispatch of one effect. Identifier is 0 until the
// first dispatch and grows by one per dispatch.
type CallRecord struct {
	Args       []any
	Identifier uint64
}

// Token identifies a subscription.
type Token = observer.Token

// Instance is a mounted model.
type Instance struct {
	id        string
	model     *Model
	ctx       context.Context
	registry  *Registry
	published bool

	mu     sync.RWMutex
	state  State
	status EffectStatus

	// callMu orders identifier assignment with enqueueing.
	callMu sync.Mutex
	calls  map[string]CallRecord

	actions  Actions
	baseline *versions.Map
	queue    dispatch.Dispatcher[command]
	sup      *supervisor.Supervisor
	alive    atomic.Bool

	stateObservers  observer.Registry[State]
	statusObservers observer.Registry[EffectStatus]
	modelObservers  observer.Registry[State]
}

func newInstance(ctx context.Context, m *Model, initial State, registry *Registry) *Instance {
	if initial == nil {
		initial = m.def.State
	}

	names := make([]string, 0, len(m.def.Effects))
	for name := range m.def.Effects {
		names = append(names, name)
	}

	i := &Instance{
		id:       uuid.New().String(),
		model:    m,
		ctx:      context.WithoutCancel(ctx),
		registry: registry,
		state:    initial.Clone(),
		status:   make(EffectStatus, len(names)),
		calls:    make(map[string]CallRecord, len(names)),
		baseline: versions.New(names...),
		sup:      supervisor.New(),
	}
	for _, name := range names {
		i.status[name] = EffectState{}
		i.calls[name] = CallRecord{}
	}

	i.actions = make(Actions, len(m.def.Reducers)+len(names))
	for name, reducer := range m.def.Reducers {
		i.actions[name] = i.reducerAction(name, reducer)
	}
	for _, name := range names {
		i.actions[name] = i.effectAction(name)
	}

	i.queue = dispatch.NewPartitionedQueue(
		i.ctx,
		m.scheduler.NumWorkers,
		m.scheduler.BufferSize,
		i.reconcile,
	)
	i.alive.Store(true)
	return i
}

// ID is unique per mount.
func (i *Instance) ID() string { return i.id }

// Namespace returns the model's namespace.
func (i *Instance) Namespace() string { return i.model.namespace }

// Alive reports whether the instance is still mounted.
func (i *Instance) Alive() bool { return i.alive.Load() }

// State returns the current state.
func (i *Instance) State() State {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.state
}

// Actions returns the instance's actions. The map is the same on every call.
func (i *Instance) Actions() Actions { return i.actions }

// EffectStatus returns the current status of every declared effect.
func (i *Instance) EffectStatus() EffectStatus {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.status
}

// CallRecord returns the latest dispatch of effect name.
func (i *Instance) CallRecord(name string) (CallRecord, bool) {
	i.callMu.Lock()
	defer i.callMu.Unlock()
	rec, ok := i.calls[name]
	return rec, ok
}

// SubscribeState calls fn with every new state. Callbacks of one slice run
// one at a time in commit order, possibly on the goroutine of another
// caller's commit.
func (i *Instance) SubscribeState(fn func(State)) Token {
	return i.stateObservers.Subscribe(fn)
}

// SubscribeEffectStatus calls fn with every new effect status.
func (i *Instance) SubscribeEffectStatus(fn func(EffectStatus)) Token {
	return i.statusObservers.Subscribe(fn)
}

// Subscribe calls fn with every new state along with the actions.
func (i *Instance) Subscribe(fn func(State, Actions)) Token {
	return i.modelObservers.Subscribe(func(s State) {
		fn(s, i.actions)
	})
}

// Unsubscribe removes a subscription made by any Subscribe method.
// Unknown or already removed tokens are ignored.
func (i *Instance) Unsubscribe(token Token) {
	_ = i.stateObservers.Unsubscribe(token) ||
		i.statusObservers.Unsubscribe(token) ||
		i.modelObservers.Unsubscribe(token)
}

// Wait blocks until every effect dispatched so far has settled or been dropped.
func (i *Instance) Wait() {
	i.sup.Wait()
}

// WaitContext is Wait bounded by ctx.
func (i *Instance) WaitContext(ctx context.Context) error {
	return i.sup.WaitContext(ctx)
}

// Close unmounts the instance: the scheduler stops, observers are dropped and
// the namespace is retracted from an open registry. Effects already running
// finish, but their status updates are discarded. Close is idempotent.
func (i *Instance) Close() {
	if !i.alive.CompareAndSwap(true, false) {
		return
	}
	i.queue.Close()
	if i.published {
		i.registry.retract(i.model.namespace, i)
	}
	dropped := i.stateObservers.Clear() + i.statusObservers.Clear() + i.modelObservers.Clear()

	log.Effect(i.ctx, log.LogDebug, "model unmounted", map[string]interface{}{
		"model":     i.model.namespace,
		"instance":  i.id,
		"observers": dropped,
	})
}

func (i *Instance) reducerAction(name string, reducer Reducer) Action {
	return func(args ...any) {
		if !i.alive.Load() {
			i.logDropped(name)
			return
		}
		i.mu.Lock()
		next := reducer(i.state, args...)
		i.state = next
		i.stateObservers.Enqueue(next)
		i.modelObservers.Enqueue(next)
		i.mu.Unlock()

		i.flushState()
	}
}

// flushState delivers committed states in commit order, outside i.mu.
func (i *Instance) flushState() {
	mt := i.model.metrics
	mt.Broadcast(i.model.namespace, "state", i.stateObservers.Flush())
	mt.Broadcast(i.model.namespace, "model", i.modelObservers.Flush())
}

func (i *Instance) updateEffectState(name string, fn func(EffectState) EffectState) {
	if !i.alive.Load() {
		return
	}
	i.mu.Lock()
	next := maps.Clone(i.status)
	next[name] = fn(next[name])
	i.status = next
	i.statusObservers.Enqueue(next)
	i.mu.Unlock()

	i.model.metrics.Broadcast(i.model.namespace, "effects", i.statusObservers.Flush())
}

func (i *Instance) logDropped(action string) {
	log.Effect(i.ctx, log.LogDebug, "action on unmounted model ignored", map[string]interface{}{
		"model":    i.model.namespace,
		"instance": i.id,
		"action":   action,
	})
}
