// Package worker provides the goroutines that run submitted actions.
//
// A [Sequential] worker owns one goroutine and an unbounded FIFO queue, so
// everything submitted to it runs in order and never overlaps. A [Group]
// runs tasks concurrently. The [Registry] lazily binds one worker to each
// routing key and keeps it for the lifetime of the engine.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
)

// ErrStopped is returned by Execute after Stop has been called.
var ErrStopped = errors.New("courier/worker: worker stopped")

// Worker runs tasks.
type Worker interface {
	// Execute schedules task. It never blocks on the task itself.
	Execute(task func()) error

	// Stop refuses new tasks and waits until queued ones finish or ctx ends.
	Stop(ctx context.Context) error
}

// Sequential runs tasks one at a time on a dedicated goroutine, in the
// order they were submitted.
type Sequential struct {
	name   string
	logger *slog.Logger

	mu      sync.Mutex
	queue   []func()
	stopped bool
	wake    chan struct{}
	done    chan struct{}
}

// NewSequential starts a sequential worker. name appears in logs.
func NewSequential(name string, logger *slog.Logger) *Sequential {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Sequential{
		name:   name,
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w
}

// Name returns the worker name.
func (w *Sequential) Name() string { return w.name }

// Execute appends task to the queue.
func (w *Sequential) Execute(task func()) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return ErrStopped
	}
	w.queue = append(w.queue, task)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

// Pending returns the number of tasks waiting to start.
func (w *Sequential) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

// Stop refuses new tasks, lets the queue drain and waits for the goroutine
// to exit.
func (w *Sequential) Stop(ctx context.Context) error {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Sequential) loop() {
	defer close(w.done)
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			stopped := w.stopped
			w.mu.Unlock()
			if stopped {
				return
			}
			<-w.wake
			continue
		}
		task := w.queue[0]
		w.queue[0] = nil
		w.queue = w.queue[1:]
		w.mu.Unlock()

		runTask(w.logger, w.name, task)
	}
}

// runTask runs task and keeps a panic from killing the worker goroutine.
func runTask(logger *slog.Logger, name string, task func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("worker task panicked",
				slog.String("worker", name),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	task()
}
