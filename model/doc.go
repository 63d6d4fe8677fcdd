// Package model turns a declarative Definition into a live, observable store.
//
// A Definition holds an initial State, synchronous Reducers and asynchronous
// Effects. Mounting a Model yields an Instance exposing three independently
// observable slices:
//
//   - State: replaced wholesale by every reducer call.
//   - Actions: one callable per reducer and effect, fixed for the instance's life.
//   - EffectStatus: IsLoading and Error per declared effect.
//
// # Dispatching effects
//
// Calling an effect action does not run the effect. It bumps that effect's
// call identifier, records the arguments, and enqueues a command. A scheduler
// drains the queue and launches one goroutine per command whose identifier is
// newer than the last one it started, so N dispatches run the body exactly N
// times, identical arguments included. Identifier 0 means "never called", so
// mounting runs nothing.
//
// Overlapping runs of the same effect are not queued, debounced or cancelled;
// the status slot reflects whichever run settles last. Errors and panics from
// an effect body are recorded in its EffectState and never reach the caller.
//
// # Providers and observers
//
// Provide mounts an instance and stores it in a context.Context, the way a
// provider makes a value reachable to its descendants; UseState, UseActions,
// UseEffectStatus and Use read it back. Subscribe* register change callbacks
// that stop firing when the instance unmounts.
//
// # Cross-model actions
//
// Effects receive a *Registry mapping namespaces to published Actions, so one
// model's effect can drive another model's reducers and effects.
//
// Example:
//
//	counter := model.New(model.Definition{
//	    State: model.State{"count": 0},
//	    Reducers: map[string]model.Reducer{
//	        "increment": func(s model.State, _ ...any) model.State {
//	            return model.State{"count": s["count"].(int) + 1}
//	        },
//	    },
//	})
//
//	ctx, end := counter.Provide(ctx, nil)
//	defer end()
//
//	actions, _ := counter.UseActions(ctx)
//	actions["increment"]()
package model
