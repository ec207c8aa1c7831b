package worker

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Factory builds the worker for a key on first use.
type Factory func(key string) Worker

// Registry maps routing keys to workers. Workers are created lazily and
// kept until Stop. It is safe for concurrent use.
type Registry struct {
	factory Factory
	logger  *slog.Logger

	mu      sync.RWMutex
	workers map[string]Worker
}

// NewRegistry creates a registry that builds missing workers with factory.
func NewRegistry(factory Factory, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		factory: factory,
		logger:  logger,
		workers: make(map[string]Worker),
	}
}

// For returns the worker bound to key, creating it if needed. The common
// path takes only the read lock.
func (r *Registry) For(key string) Worker {
	r.mu.RLock()
	w, ok := r.workers[key]
	r.mu.RUnlock()
	if ok {
		return w
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.workers[key]; ok {
		return w
	}
	w = r.factory(key)
	r.workers[key] = w
	r.logger.Debug("worker created", slog.String("key", key))
	return w
}

// Set binds a caller-supplied worker to key. It reports false if key is
// already bound.
func (r *Registry) Set(key string, w Worker) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workers[key]; ok {
		return false
	}
	r.workers[key] = w
	return true
}

// Lookup returns the worker bound to key without creating one.
func (r *Registry) Lookup(key string) (Worker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.workers[key]
	return w, ok
}

// Keys returns a sorted snapshot of the bound keys. Keys added
// concurrently may be missing.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	keys := make([]string, 0, len(r.workers))
	for k := range r.workers {
		keys = append(keys, k)
	}
	r.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// StopAll stops every worker concurrently and joins their errors.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.RLock()
	keys := make([]string, 0, len(r.workers))
	workers := make([]Worker, 0, len(r.workers))
	for k, w := range r.workers {
		keys = append(keys, k)
		workers = append(workers, w)
	}
	r.mu.RUnlock()

	// Each slot is written by one goroutine; every error is kept.
	errs := make([]error, len(workers))
	var g errgroup.Group
	for i, w := range workers {
		g.Go(func() error {
			if err := w.Stop(ctx); err != nil {
				r.logger.Warn("worker stop error",
					slog.String("key", keys[i]),
					slog.String("error", err.Error()),
				)
				errs[i] = err
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
