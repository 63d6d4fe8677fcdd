package model

import (
	"fmt"
	"maps"
	"slices"
)

// Action is a bound reducer or effect. Reducer actions apply synchronously;
// effect actions only schedule a run.
type Action func(args ...any)

// Actions maps action names to bound actions.
type Actions map[string]Action

// Call invokes the named action.
func (a Actions) Call(name string, args ...any) error {
	action, ok := a[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	action(args...)
	return nil
}

// Names returns the action names in lexical order.
func (a Actions) Names() []string {
	return slices.Sorted(maps.Keys(a))
}
