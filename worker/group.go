package worker

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Group runs tasks concurrently with no ordering guarantee. With a limit,
// tasks beyond it wait in a FIFO feeder until a slot frees up; Execute
// itself never blocks.
type Group struct {
	name   string
	logger *slog.Logger
	g      errgroup.Group
	feeder *Sequential

	mu      sync.Mutex
	stopped bool
}

// NewGroup creates a concurrent group. limit <= 0 means unbounded.
func NewGroup(name string, limit int, logger *slog.Logger) *Group {
	if logger == nil {
		logger = slog.Default()
	}
	grp := &Group{name: name, logger: logger}
	if limit > 0 {
		grp.g.SetLimit(limit)
		grp.feeder = NewSequential(name+"-feeder", logger)
	}
	return grp
}

// Name returns the group name.
func (grp *Group) Name() string { return grp.name }

// Execute schedules task.
func (grp *Group) Execute(task func()) error {
	grp.mu.Lock()
	defer grp.mu.Unlock()
	if grp.stopped {
		return ErrStopped
	}

	run := func() error {
		runTask(grp.logger, grp.name, task)
		return nil
	}
	if grp.feeder == nil {
		grp.g.Go(run)
		return nil
	}
	return grp.feeder.Execute(func() { grp.g.Go(run) })
}

// Stop refuses new tasks and waits for running and queued ones.
func (grp *Group) Stop(ctx context.Context) error {
	grp.mu.Lock()
	grp.stopped = true
	grp.mu.Unlock()

	if grp.feeder != nil {
		if err := grp.feeder.Stop(ctx); err != nil {
			return err
		}
	}

	done := make(chan struct{})
	go func() {
		_ = grp.g.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
