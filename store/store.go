// Package store mounts several models side by side so that their effects can
// call each other's actions through one shared registry.
package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/reganan/icestore/log"
	"github.com/reganan/icestore/model"
)

// ErrUnknownNamespace is returned for a namespace the store was not built with.
var ErrUnknownNamespace = errors.New("unknown namespace")

// Store owns one model per namespace.
type Store struct {
	namespaces []string
	models     map[string]*model.Model
}

// New builds one model per entry of defs. opts apply to every model;
// WithNamespace is set from the map key and WithRegistry is ignored because
// every Provider call wires a registry of its own.
func New(defs map[string]model.Definition, opts ...model.Option) *Store {
	s := &Store{
		namespaces: slices.Sorted(maps.Keys(defs)),
		models:     make(map[string]*model.Model, len(defs)),
	}
	for _, ns := range s.namespaces {
		s.models[ns] = model.New(defs[ns], append(slices.Clone(opts), model.WithNamespace(ns))...)
	}
	return s
}

// Namespaces returns the store's namespaces in provider nesting order.
func (s *Store) Namespaces() []string {
	return slices.Clone(s.namespaces)
}

// Model returns the model of ns.
func (s *Store) Model(ns string) (*model.Model, error) {
	m, ok := s.models[ns]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNamespace, ns)
	}
	return m, nil
}

// Provider mounts every namespace and returns a context carrying all of them.
// initialStates overrides the definition state per namespace.
//
// Every instance is mounted before any action is published, and the registry
// is sealed once all namespaces are in it, so an effect either sees the whole
// store or nothing. The returned function unmounts the innermost namespace
// first and returns ctx.
func (s *Store) Provider(ctx context.Context, initialStates map[string]model.State) (context.Context, func() context.Context) {
	ctxWith, end, err := s.provide(ctx, s.namespaces, initialStates)
	if err != nil {
		// s.namespaces only holds known namespaces.
		panic(err)
	}
	return ctxWith, end
}

// Compose provides the listed namespaces around children and unmounts them
// once children returns.
func (s *Store) Compose(
	ctx context.Context,
	namespaces []string,
	initialStates map[string]model.State,
	children func(ctx context.Context) error,
) error {
	ordered := make([]string, 0, len(namespaces))
	for _, ns := range s.namespaces {
		if slices.Contains(namespaces, ns) {
			ordered = append(ordered, ns)
		}
	}
	for _, ns := range namespaces {
		if _, ok := s.models[ns]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownNamespace, ns)
		}
	}

	ctxWith, end, err := s.provide(ctx, ordered, initialStates)
	if err != nil {
		return err
	}
	defer end()
	return children(ctxWith)
}

func (s *Store) provide(
	ctx context.Context,
	namespaces []string,
	initialStates map[string]model.State,
) (context.Context, func() context.Context, error) {
	reg := model.NewRegistry()
	instances := make([]*model.Instance, 0, len(namespaces))

	// phase 1: mount
	for _, ns := range namespaces {
		m, ok := s.models[ns]
		if !ok {
			for _, inst := range instances {
				inst.Close()
			}
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownNamespace, ns)
		}
		instances = append(instances, m.Mount(ctx, initialStates[ns], model.SharedRegistry(reg)))
	}

	// phase 2: publish and seal
	for _, inst := range instances {
		if err := reg.Publish(inst.Namespace(), inst.Actions()); err != nil {
			for _, inst := range instances {
				inst.Close()
			}
			return nil, nil, err
		}
	}
	reg.Seal()

	ctxWith := ctx
	for _, inst := range instances {
		ctxWith = s.models[inst.Namespace()].WithInstance(ctxWith, inst)
	}

	log.Effect(ctx, log.LogDebug, "store provided", map[string]interface{}{
		"namespaces": namespaces,
	})

	return ctxWith, func() context.Context {
		for _, inst := range slices.Backward(instances) {
			inst.Close()
		}
		return ctx
	}, nil
}
