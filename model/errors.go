package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNoProvider is returned by the Use* accessors when ctx carries no
	// mounted instance of the model.
	ErrNoProvider = errors.New("no provider for model")

	// ErrUnknownAction is returned when calling an action name that was not declared.
	ErrUnknownAction = errors.New("unknown action")

	// ErrUnregisteredNamespace is returned when reading a namespace that has
	// not published its actions.
	ErrUnregisteredNamespace = errors.New("namespace not registered")

	// ErrAlreadyPublished is returned when a namespace publishes twice.
	ErrAlreadyPublished = errors.New("namespace already published")

	// ErrRegistrySealed is returned when publishing into a sealed registry.
	ErrRegistrySealed = errors.New("registry is sealed")

	// ErrNoSuchKey is returned when a state key is absent.
	ErrNoSuchKey = errors.New("key not found")
)

// PanicError wraps a non-error value recovered from a panicking effect.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("effect panicked: %v", e.Value)
}

func recovered(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &PanicError{Value: r}
}
