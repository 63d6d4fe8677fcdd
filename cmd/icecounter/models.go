package main

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/reganan/icestore/bindings"
	"github.com/reganan/icestore/model"
)

const (
	counterNS = "counter"
	todosNS   = "todos"
)

func definitions(delay time.Duration) map[string]model.Definition {
	return map[string]model.Definition{
		counterNS: {
			State: model.State{"count": 0},
			Reducers: map[string]model.Reducer{
				"increment": func(s model.State, _ ...any) model.State {
					return model.State{"count": s["count"].(int) + 1}
				},
				"decrement": func(s model.State, _ ...any) model.State {
					return model.State{"count": s["count"].(int) - 1}
				},
				"reset": func(model.State, ...any) model.State {
					return model.State{"count": 0}
				},
			},
			Effects: map[string]model.Effect{
				"incrementLater": func(ctx context.Context, _ model.State, reg *model.Registry, _ ...any) error {
					if err := sleep(ctx, delay); err != nil {
						return err
					}
					return reg.Call(counterNS, "increment")
				},
			},
		},
		todosNS: {
			State: model.State{"items": []string{}},
			Reducers: map[string]model.Reducer{
				"add": func(s model.State, args ...any) model.State {
					items := slices.Clone(s["items"].([]string))
					return model.State{"items": append(items, args[0].(string))}
				},
				"clear": func(model.State, ...any) model.State {
					return model.State{"items": []string{}}
				},
			},
			Effects: map[string]model.Effect{
				"save": func(ctx context.Context, s model.State, reg *model.Registry, args ...any) error {
					title, _ := args[0].(string)
					if title == "" {
						return errors.New("empty todo")
					}
					if err := sleep(ctx, delay); err != nil {
						return err
					}
					if err := reg.Call(todosNS, "add", title); err != nil {
						return err
					}
					return reg.Call(counterNS, "increment")
				},
			},
		},
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func preferences(opts ...bindings.Option) *bindings.Store {
	return bindings.New(
		bindings.State{"dark": false},
		map[string]bindings.Method{
			"toggleTheme": func(_ context.Context, this bindings.State, _ ...any) error {
				this["dark"] = !this["dark"].(bool)
				return nil
			},
		},
		append(opts, bindings.WithName("preferences"))...,
	)
}
