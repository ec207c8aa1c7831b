package action

import (
	"fmt"
	"sort"
	"sync"

	"github.com/xraph/courier"
)

type registration struct {
	run  Func
	opts Options
}

// Registry maps action names to work functions so persisted actions can be
// rebuilt after a restart. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registration
}

// NewRegistry creates an empty action registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registration)}
}

// Register binds name to fn. opts supply the hooks and retry policy of
// restored actions, which cannot be serialized.
func (r *Registry) Register(name string, fn Func, opts ...Option) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = registration{run: fn, opts: o}
}

// RegisterDefinition registers a typed definition under its name.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func RegisterDefinition[T any](r *Registry, def *Definition[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[def.Name] = registration{run: def.Func(), opts: def.Opts}
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Restore rebuilds a persistent action from its snapshot. The retry
// counter continues from the persisted value.
func (r *Registry) Restore(s Snapshot) (*Action, error) {
	r.mu.RLock()
	reg, ok := r.entries[s.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", courier.ErrUnknownAction, s.Name)
	}

	o := reg.opts
	o.Persistent = true
	o.Key = s.Key
	o.RetryLimit = s.RetryLimit
	o.RunIfUnsubscribed = s.RunIfUnsubscribed
	o.Timeout = s.Timeout

	return &Action{
		name:       s.Name,
		payload:    s.Payload,
		run:        reg.run,
		opts:       o,
		retryCount: s.RetryCount,
	}, nil
}
