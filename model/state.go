package model

import (
	"fmt"
	"maps"

	"github.com/reganan/icestore/shared/helper"
)

// State is the value held by a model. Treat it as immutable: reducers return
// a new map instead of writing into the one they receive.
type State map[string]any

// Clone returns a shallow copy. A nil State clones to an empty one.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	return maps.Clone(s)
}

// Value reads key from s as a T.
func Value[T any](s State, key string) (T, error) {
	return helper.GetTypedValueOf[T](func() (any, error) {
		v, ok := s[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoSuchKey, key)
		}
		return v, nil
	})
}
