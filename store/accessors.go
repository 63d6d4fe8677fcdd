package store

import (
	"context"

	"github.com/reganan/icestore/model"
)

// Instance returns the provided instance of ns, for subscriptions.
func (s *Store) Instance(ctx context.Context, ns string) (*model.Instance, error) {
	m, err := s.Model(ns)
	if err != nil {
		return nil, err
	}
	return m.UseInstance(ctx)
}

// UseModel returns state and actions of ns.
func (s *Store) UseModel(ctx context.Context, ns string) (model.State, model.Actions, error) {
	inst, err := s.Instance(ctx, ns)
	if err != nil {
		return nil, nil, err
	}
	return inst.State(), inst.Actions(), nil
}

// UseModelState returns the state of ns.
func (s *Store) UseModelState(ctx context.Context, ns string) (model.State, error) {
	inst, err := s.Instance(ctx, ns)
	if err != nil {
		return nil, err
	}
	return inst.State(), nil
}

// UseModelAction returns the actions of ns.
func (s *Store) UseModelAction(ctx context.Context, ns string) (model.Actions, error) {
	inst, err := s.Instance(ctx, ns)
	if err != nil {
		return nil, err
	}
	return inst.Actions(), nil
}

// UseModelEffectState returns the effect status of ns.
func (s *Store) UseModelEffectState(ctx context.Context, ns string) (model.EffectStatus, error) {
	inst, err := s.Instance(ctx, ns)
	if err != nil {
		return nil, err
	}
	return inst.EffectStatus(), nil
}
