package store

import (
	"context"
	"maps"

	"github.com/reganan/icestore/model"
)

// Props are the inputs of a Component.
type Props map[string]any

// Component renders with the models provided in ctx.
type Component func(ctx context.Context, props Props) error

// Keys under which Connect injects projections.
const (
	StateProp        = "state"
	ActionsProp      = "actions"
	EffectsStateProp = "effectsState"
)

// Connect returns a decorator that hands a component projections of ns.
//
// Each projection lands in its own prop; a nil projection yields an empty
// Props and does not read the model. Props passed by the caller win over the
// injected ones.
func (s *Store) Connect(
	ns string,
	mapState func(model.State) Props,
	mapActions func(model.Actions) Props,
	mapEffectState func(model.EffectStatus) Props,
) func(Component) Component {
	return func(c Component) Component {
		return func(ctx context.Context, props Props) error {
			injected := Props{
				StateProp:        Props{},
				ActionsProp:      Props{},
				EffectsStateProp: Props{},
			}

			if mapState != nil || mapActions != nil || mapEffectState != nil {
				inst, err := s.Instance(ctx, ns)
				if err != nil {
					return err
				}
				if mapState != nil {
					injected[StateProp] = mapState(inst.State())
				}
				if mapActions != nil {
					injected[ActionsProp] = mapActions(inst.Actions())
				}
				if mapEffectState != nil {
					injected[EffectsStateProp] = mapEffectState(inst.EffectStatus())
				}
			}

			maps.Copy(injected, props)
			return c(ctx, injected)
		}
	}
}
