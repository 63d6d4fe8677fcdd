package store_test

import (
	"context"
	"testing"

	"github.com/reganan/icestore/model"
	"github.com/reganan/icestore/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_InjectsProjections(t *testing.T) {
	ctx := withTestLog(t)
	s := newTestStore()
	ctx, end := s.Provider(ctx, map[string]model.State{"counter": {"count": 2}})
	defer end()

	var got store.Props
	view := func(_ context.Context, props store.Props) error {
		got = props
		return nil
	}

	connected := s.Connect("counter",
		func(st model.State) store.Props { return store.Props{"count": st["count"]} },
		func(a model.Actions) store.Props { return store.Props{"inc": a["increment"]} },
		func(es model.EffectStatus) store.Props { return store.Props{"failing": es["fail"].IsLoading} },
	)(view)

	require.NoError(t, connected(ctx, store.Props{"title": "Counter"}))
	assert.Equal(t, store.Props{"count": 2}, got[store.StateProp])
	assert.Equal(t, store.Props{"failing": false}, got[store.EffectsStateProp])
	assert.Equal(t, "Counter", got["title"])

	inc := got[store.ActionsProp].(store.Props)["inc"].(model.Action)
	inc()
	require.NoError(t, connected(ctx, nil))
	assert.Equal(t, store.Props{"count": 3}, got[store.StateProp])
}

func TestConnect_NilProjectionsAndOverrides(t *testing.T) {
	s := newTestStore()

	var got store.Props
	connected := s.Connect("counter", nil, nil, nil)(func(_ context.Context, props store.Props) error {
		got = props
		return nil
	})

	// No projection, no provider needed.
	require.NoError(t, connected(context.Background(), store.Props{store.StateProp: "explicit"}))
	assert.Equal(t, store.Props{
		store.StateProp:        "explicit",
		store.ActionsProp:      store.Props{},
		store.EffectsStateProp: store.Props{},
	}, got)
}

func TestConnect_MissingProvider(t *testing.T) {
	s := newTestStore()
	called := false
	connected := s.Connect("counter", func(model.State) store.Props { return nil }, nil, nil)(
		func(context.Context, store.Props) error {
			called = true
			return nil
		})

	err := connected(context.Background(), nil)
	assert.ErrorIs(t, err, model.ErrNoProvider)
	assert.False(t, called)

	err = s.Connect("missing", func(model.State) store.Props { return nil }, nil, nil)(
		func(context.Context, store.Props) error { return nil })(context.Background(), nil)
	assert.ErrorIs(t, err, store.ErrUnknownNamespace)
}
