package model

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Registry maps namespaces to published Actions so that effects can call
// into other models.
//
// Each namespace publishes at most once. Seal freezes the registry; a store
// publishes every namespace first and seals afterwards, so effects never see
// a half-filled registry. A nil *Registry behaves as an empty, sealed one.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registryEntry
	sealed  bool
}

type registryEntry struct {
	actions Actions
	owner   *Instance
}

// NewRegistry returns an empty, unsealed registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registryEntry)}
}

// Publish inserts a copy of actions under namespace.
func (r *Registry) Publish(namespace string, actions Actions) error {
	return r.publish(namespace, actions, nil)
}

func (r *Registry) publish(namespace string, actions Actions, owner *Instance) error {
	if r == nil {
		return fmt.Errorf("%w: %s", ErrRegistrySealed, namespace)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("%w: %s", ErrRegistrySealed, namespace)
	}
	if _, ok := r.entries[namespace]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyPublished, namespace)
	}
	r.entries[namespace] = registryEntry{actions: maps.Clone(actions), owner: owner}
	return nil
}

// retract drops namespace if owner published it and the registry is still open.
func (r *Registry) retract(namespace string, owner *Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return
	}
	if e, ok := r.entries[namespace]; ok && e.owner == owner {
		delete(r.entries, namespace)
	}
}

// Seal forbids further publishing.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether Seal was called.
func (r *Registry) Sealed() bool {
	if r == nil {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Actions returns a copy of the actions published under namespace. Changing
// the copy does not affect the registry.
func (r *Registry) Actions(namespace string) (Actions, error) {
	actions, err := r.lookup(namespace)
	if err != nil {
		return nil, err
	}
	return maps.Clone(actions), nil
}

func (r *Registry) lookup(namespace string) (Actions, error) {
	if r != nil {
		r.mu.RLock()
		e, ok := r.entries[namespace]
		r.mu.RUnlock()
		if ok {
			return e.actions, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnregisteredNamespace, namespace)
}

// MustActions is the panic-on-failure variant of Actions.
func (r *Registry) MustActions(namespace string) Actions {
	actions, err := r.Actions(namespace)
	if err != nil {
		panic(err)
	}
	return actions
}

// Call invokes action of namespace.
func (r *Registry) Call(namespace, action string, args ...any) error {
	actions, err := r.lookup(namespace)
	if err != nil {
		return err
	}
	return actions.Call(action, args...)
}

// Namespaces lists published namespaces in lexical order.
func (r *Registry) Namespaces() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.entries))
}
