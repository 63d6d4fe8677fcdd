package model_test

import (
	"context"
	"testing"

	"github.com/reganan/icestore/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PublishOnceAndSeal(t *testing.T) {
	reg := model.NewRegistry()
	actions := model.Actions{"noop": func(...any) {}}

	require.NoError(t, reg.Publish("a", actions))
	assert.ErrorIs(t, reg.Publish("a", actions), model.ErrAlreadyPublished)

	reg.Seal()
	assert.True(t, reg.Sealed())
	assert.ErrorIs(t, reg.Publish("b", actions), model.ErrRegistrySealed)
	assert.Equal(t, []string{"a"}, reg.Namespaces())

	_, err := reg.Actions("b")
	assert.ErrorIs(t, err, model.ErrUnregisteredNamespace)
	assert.Panics(t, func() { reg.MustActions("b") })
}

func TestRegistry_Nil(t *testing.T) {
	var reg *model.Registry
	assert.True(t, reg.Sealed())
	assert.Nil(t, reg.Namespaces())
	assert.ErrorIs(t, reg.Call("x", "y"), model.ErrUnregisteredNamespace)
	assert.ErrorIs(t, reg.Publish("x", nil), model.ErrRegistrySealed)
}

func TestRegistry_CallUnknownAction(t *testing.T) {
	reg := model.NewRegistry()
	require.NoError(t, reg.Publish("a", model.Actions{}))
	assert.ErrorIs(t, reg.Call("a", "missing"), model.ErrUnknownAction)
}

func TestRegistry_EffectCallsOtherNamespace(t *testing.T) {
	ctx := withTestLog(t)
	reg := model.NewRegistry()

	counter := model.New(counterDefinition(),
		model.WithNamespace("counter"), model.WithRegistry(reg))
	caller := model.New(model.Definition{
		Effects: map[string]model.Effect{
			"bump": func(_ context.Context, _ model.State, r *model.Registry, _ ...any) error {
				return r.Call("counter", "increment")
			},
		},
	}, model.WithNamespace("caller"), model.WithRegistry(reg))

	// The target is not mounted yet.
	early := caller.Mount(ctx, nil)
	early.Actions()["bump"]()
	early.Wait()
	assert.ErrorIs(t, early.EffectStatus()["bump"].Error, model.ErrUnregisteredNamespace)
	early.Close()

	counterInst := counter.Mount(ctx, nil)
	defer counterInst.Close()
	callerInst := caller.Mount(ctx, nil)
	defer callerInst.Close()

	assert.Equal(t, []string{"caller", "counter"}, reg.Namespaces())

	callerInst.Actions()["bump"]()
	callerInst.Wait()

	assert.NoError(t, callerInst.EffectStatus()["bump"].Error)
	assert.Equal(t, 1, counterInst.State()["count"])
}

func TestRegistry_UnmountRetractsAndRemountRepublishes(t *testing.T) {
	ctx := withTestLog(t)
	reg := model.NewRegistry()
	counter := model.New(counterDefinition(),
		model.WithNamespace("counter"), model.WithRegistry(reg))

	first := counter.Mount(ctx, nil)
	second := counter.Mount(ctx, nil)
	defer second.Close()

	// Insert-once: the first mount keeps the namespace.
	first.Actions()["increment"]()
	require.NoError(t, reg.Call("counter", "increment"))
	assert.Equal(t, 2, first.State()["count"])
	assert.Equal(t, 0, second.State()["count"])

	// Closing the owner retracts the namespace.
	first.Close()
	_, err := reg.Actions("counter")
	assert.ErrorIs(t, err, model.ErrUnregisteredNamespace)

	third := counter.Mount(ctx, nil)
	defer third.Close()
	require.NoError(t, reg.Call("counter", "set", 9))
	assert.Equal(t, 9, third.State()["count"])
}

func TestRegistry_SharedRegistrySkipsPublishing(t *testing.T) {
	ctx := withTestLog(t)
	reg := model.NewRegistry()
	m := model.New(counterDefinition(), model.WithNamespace("counter"))

	inst := m.Mount(ctx, nil, model.SharedRegistry(reg))
	defer inst.Close()
	assert.Empty(t, reg.Namespaces())

	require.NoError(t, reg.Publish("counter", inst.Actions()))
	reg.Seal()
	inst.Close()
	_, err := reg.Actions("counter")
	assert.NoError(t, err, "sealed registries are never retracted")
}

func TestRegistry_PublishedActionsCannotBeRewritten(t *testing.T) {
	called := ""
	actions := model.Actions{"ping": func(...any) { called = "original" }}
	reg := model.NewRegistry()
	require.NoError(t, reg.Publish("a", actions))
	reg.Seal()

	actions["ping"] = func(...any) { called = "source" }
	actions["extra"] = func(...any) {}

	got, err := reg.Actions("a")
	require.NoError(t, err)
	got["ping"] = func(...any) { called = "copy" }
	got["injected"] = func(...any) {}

	require.NoError(t, reg.Call("a", "ping"))
	assert.Equal(t, "original", called)
	assert.ErrorIs(t, reg.Call("a", "extra"), model.ErrUnknownAction)
	assert.ErrorIs(t, reg.Call("a", "injected"), model.ErrUnknownAction)

	again, err := reg.Actions("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"ping"}, again.Names())
}
