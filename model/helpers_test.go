package model_test

import (
	"context"
	"sync"
	"testing"

	"github.com/reganan/icestore/log"
	"github.com/reganan/icestore/model"
)

func withTestLog(t *testing.T) context.Context {
	t.Helper()
	ctx, endOfLogHandler := log.WithTestEffectHandler(context.Background())
	t.Cleanup(func() { endOfLogHandler() })
	return ctx
}

func counterDefinition() model.Definition {
	return model.Definition{
		State: model.State{"count": 0},
		Reducers: map[string]model.Reducer{
			"increment": func(s model.State, _ ...any) model.State {
				return model.State{"count": s["count"].(int) + 1}
			},
			"set": func(_ model.State, args ...any) model.State {
				return model.State{"count": args[0].(int)}
			},
		},
	}
}

// statusRecorder collects every effect status broadcast.
type statusRecorder struct {
	mu   sync.Mutex
	seen []model.EffectStatus
}

func (r *statusRecorder) record(s model.EffectStatus) {
	r.mu.Lock()
	r.seen = append(r.seen, s)
	r.mu.Unlock()
}

func (r *statusRecorder) count(name string, pred func(model.EffectState) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.seen {
		if pred(s[name]) {
			n++
		}
	}
	return n
}

func loading(s model.EffectState) bool { return s.IsLoading }
func settled(s model.EffectState) bool { return !s.IsLoading }
