package action

import (
	"context"
	"encoding/json"
	"fmt"
)

// Definition is a typed action with a JSON-serializable payload. Actions
// built from a registered Definition can be persisted and restored.
type Definition[T any] struct {
	// Name is the unique identifier for this kind of action.
	Name string

	// Handler processes the payload.
	Handler func(ctx context.Context, payload T) (any, error)

	// Opts are the defaults for every action built from this definition.
	Opts Options
}

// NewDefinition creates a typed action definition.
func NewDefinition[T any](name string, handler func(ctx context.Context, payload T) (any, error), opts ...Option) *Definition[T] {
	def := &Definition[T]{
		Name:    name,
		Handler: handler,
		Opts:    DefaultOptions(),
	}
	for _, opt := range opts {
		opt(&def.Opts)
	}
	return def
}

// Func returns a type-erased work function that decodes the action payload
// into T before calling the handler.
func (d *Definition[T]) Func() Func {
	return func(ctx context.Context, a *Action) (any, error) {
		var t T
		if len(a.payload) > 0 {
			if err := json.Unmarshal(a.payload, &t); err != nil {
				return nil, Permanent(fmt.Errorf("unmarshal payload for action %q: %w", d.Name, err))
			}
		}
		return d.Handler(ctx, t)
	}
}

// New builds an action carrying payload. opts are applied on top of the
// definition's defaults.
func (d *Definition[T]) New(payload T, opts ...Option) (*Action, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("courier/action: marshal payload for %q: %w", d.Name, err)
	}
	o := d.Opts
	for _, opt := range opts {
		opt(&o)
	}
	return &Action{name: d.Name, payload: data, run: d.Func(), opts: o}, nil
}
