package model

import (
	"context"
	"fmt"
	"maps"

	"github.com/reganan/icestore/config"
	"github.com/reganan/icestore/log"
	"github.com/reganan/icestore/metrics"
	"github.com/reganan/icestore/shared/helper"
)

// Reducer computes the next state. It must not modify state.
type Reducer func(state State, args ...any) State

// Effect is an asynchronous operation. state is the instance state when the
// run starts; registry exposes other models' actions (it may be nil for a
// standalone model). A returned error or a panic is recorded in the effect's
// EffectState.
type Effect func(ctx context.Context, state State, registry *Registry, args ...any) error

// Definition declares a model. Every field is optional.
type Definition struct {
	State    State
	Reducers map[string]Reducer
	Effects  map[string]Effect
}

// Model is an immutable, mountable Definition.
type Model struct {
	def       Definition
	namespace string
	registry  *Registry
	scheduler config.Scheduler
	metrics   *metrics.Metrics
}

// Option configures a Model.
type Option func(*Model)

// WithNamespace names the model. Together with WithRegistry it makes the
// mounted instance publish its actions under that name.
func WithNamespace(namespace string) Option {
	return func(m *Model) { m.namespace = namespace }
}

// WithRegistry sets the registry handed to effects.
func WithRegistry(registry *Registry) Option {
	return func(m *Model) { m.registry = registry }
}

// WithScheduler sizes the effect command queue.
func WithScheduler(cfg config.Scheduler) Option {
	return func(m *Model) { m.scheduler = cfg.Normalize() }
}

// WithMetrics records dispatches, runs and broadcasts into m.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Model) { m.metrics = mt }
}

// New copies def and applies opts. An effect and a reducer sharing a name
// resolve to the effect.
func New(def Definition, opts ...Option) *Model {
	m := &Model{
		def: Definition{
			State:    def.State.Clone(),
			Reducers: maps.Clone(def.Reducers),
			Effects:  maps.Clone(def.Effects),
		},
		scheduler: config.Default().Scheduler,
	}
	if m.def.Reducers == nil {
		m.def.Reducers = map[string]Reducer{}
	}
	if m.def.Effects == nil {
		m.def.Effects = map[string]Effect{}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Namespace returns the model's namespace, empty when unnamed.
func (m *Model) Namespace() string { return m.namespace }

// MountOption adjusts a single Mount.
type MountOption func(*mountOptions)

type mountOptions struct {
	registry *Registry
	publish  bool
}

// SharedRegistry hands reg to the instance's effects instead of the model's
// own registry and skips publishing; the caller publishes the actions itself.
func SharedRegistry(reg *Registry) MountOption {
	return func(o *mountOptions) {
		o.registry = reg
		o.publish = false
	}
}

// Mount creates a live instance. A nil initial falls back to the
// definition's state. The caller must Close the instance.
func (m *Model) Mount(ctx context.Context, initial State, opts ...MountOption) *Instance {
	mo := mountOptions{
		registry: m.registry,
		publish:  m.registry != nil && m.namespace != "",
	}
	for _, opt := range opts {
		opt(&mo)
	}

	inst := newInstance(ctx, m, initial, mo.registry)
	if mo.publish {
		if err := mo.registry.publish(m.namespace, inst.actions, inst); err != nil {
			log.Effect(ctx, log.LogWarn, "failed to publish model actions", map[string]interface{}{
				"model": m.namespace,
				"err":   err,
			})
		} else {
			inst.published = true
		}
	}

	log.Effect(ctx, log.LogDebug, "model mounted", map[string]interface{}{
		"model":    m.namespace,
		"instance": inst.id,
		"effects":  len(m.def.Effects),
		"reducers": len(m.def.Reducers),
	})
	return inst
}

type providerKey struct{ model *Model }

// WithInstance returns a context carrying inst as this model's provider.
// inst must come from m.Mount.
func (m *Model) WithInstance(ctx context.Context, inst *Instance) context.Context {
	if inst.model != m {
		panic(fmt.Sprintf("instance %s was not mounted from this model", inst.id))
	}
	return context.WithValue(ctx, providerKey{m}, inst)
}

// Provide mounts an instance and makes it reachable from the returned
// context. The returned function unmounts it and returns the parent context.
func (m *Model) Provide(ctx context.Context, initial State) (context.Context, func() context.Context) {
	inst := m.Mount(ctx, initial)
	ctxWith := m.WithInstance(ctx, inst)

	return ctxWith, func() context.Context {
		inst.Close()
		return ctx
	}
}

// UseInstance returns the nearest provided instance of m.
func (m *Model) UseInstance(ctx context.Context) (*Instance, error) {
	inst, ok := helper.GetTypedValueOf2[*Instance](func() (any, bool) {
		v := ctx.Value(providerKey{m})
		return v, v != nil
	})
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoProvider, m.namespace)
	}
	return inst, nil
}

// UseState returns the provided instance's current state.
func (m *Model) UseState(ctx context.Context) (State, error) {
	inst, err := m.UseInstance(ctx)
	if err != nil {
		return nil, err
	}
	return inst.State(), nil
}

// UseActions returns the provided instance's actions.
func (m *Model) UseActions(ctx context.Context) (Actions, error) {
	inst, err := m.UseInstance(ctx)
	if err != nil {
		return nil, err
	}
	return inst.Actions(), nil
}

// UseEffectStatus returns the provided instance's effect status.
func (m *Model) UseEffectStatus(ctx context.Context) (EffectStatus, error) {
	inst, err := m.UseInstance(ctx)
	if err != nil {
		return nil, err
	}
	return inst.EffectStatus(), nil
}

// Use returns state and actions together.
func (m *Model) Use(ctx context.Context) (State, Actions, error) {
	inst, err := m.UseInstance(ctx)
	if err != nil {
		return nil, nil, err
	}
	return inst.State(), inst.Actions(), nil
}
