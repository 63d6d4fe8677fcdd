package model

import (
	"context"
	"slices"
	"time"

	"github.com/reganan/icestore/log"
	"github.com/rickb777/date/v2/timespan"
)

// command is one effect dispatch waiting for the scheduler.
type command struct {
	name       string
	args       []any
	identifier uint64
	release    func()
}

// PartitionKey keeps commands of one effect on one worker, in dispatch order.
func (c command) PartitionKey() string { return c.name }

func (i *Instance) effectAction(name string) Action {
	return func(args ...any) {
		i.dispatchEffect(name, args)
	}
}

func (i *Instance) dispatchEffect(name string, args []any) {
	if !i.alive.Load() {
		i.logDropped(name)
		return
	}

	i.callMu.Lock()
	defer i.callMu.Unlock()

	rec := CallRecord{
		Args:       slices.Clone(args),
		Identifier: i.calls[name].Identifier + 1,
	}
	i.calls[name] = rec

	cmd := command{
		name:       name,
		args:       rec.Args,
		identifier: rec.Identifier,
		release:    i.sup.Track(),
	}
	if !i.queue.Dispatch(i.ctx, cmd) {
		cmd.release()
		i.logDropped(name)
		return
	}
	i.model.metrics.Dispatched(i.model.namespace, name)
}

// reconcile runs on a scheduler worker. The baseline advances here, before
// the body is launched, so a command is started at most once.
func (i *Instance) reconcile(_ context.Context, cmd command) {
	if !i.alive.Load() || !i.baseline.Advance(cmd.name, cmd.identifier) {
		cmd.release()
		return
	}

	i.sup.Go(i.ctx, func(ctx context.Context) {
		defer cmd.release()
		i.run(ctx, cmd)
	})
}

func (i *Instance) run(ctx context.Context, cmd command) {
	i.updateEffectState(cmd.name, func(prev EffectState) EffectState {
		return EffectState{IsLoading: true, Span: prev.Span}
	})

	settled := i.model.metrics.RunStarted(i.model.namespace, cmd.name)
	start := time.Now()
	err := i.invoke(ctx, cmd)
	span := timespan.BetweenTimes(start, time.Now())
	settled(err)

	i.updateEffectState(cmd.name, func(EffectState) EffectState {
		return EffectState{IsLoading: false, Error: err, Span: span}
	})

	if err != nil {
		log.Effect(ctx, log.LogWarn, "effect failed", map[string]interface{}{
			"model":      i.model.namespace,
			"effect":     cmd.name,
			"identifier": cmd.identifier,
			"err":        err,
		})
	}
}

func (i *Instance) invoke(ctx context.Context, cmd command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
	}()
	return i.model.def.Effects[cmd.name](ctx, i.State(), i.registry, cmd.args...)
}
