package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/xraph/courier"
	"github.com/xraph/courier/action"
	"github.com/xraph/courier/persist"
	"github.com/xraph/courier/worker"
)

// Restore coordinator states. A coordinator only moves forward.
const (
	stateNotStarted int32 = iota
	stateLoading
	stateRestored
)

// pending is a submission buffered while persisted actions load.
type pending struct {
	w    worker.Worker
	task func()
}

// restorer gates ordinary submissions behind the restore of persisted
// actions. The buffer and the transition to stateRestored share one lock,
// so a submission racing the transition is either buffered and flushed or
// executed directly, never both and never neither.
type restorer struct {
	state atomic.Int32
	done  chan struct{}

	mu       sync.Mutex
	buffered []pending

	// Deferred restore.
	deferred bool
	loaded   bool
	resumed  bool
	held     []*submission
}

func newRestorer(deferred bool) *restorer {
	return &restorer{done: make(chan struct{}), deferred: deferred}
}

func (r *restorer) begin() { r.state.Store(stateLoading) }

func (r *restorer) restored() bool { return r.state.Load() == stateRestored }

// dispatch hands task to w, or buffers it while loading.
func (r *restorer) dispatch(w worker.Worker, task func()) error {
	if r.restored() {
		return w.Execute(task)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.restored() {
		return w.Execute(task)
	}
	r.buffered = append(r.buffered, pending{w: w, task: task})
	return nil
}

// finish flushes the buffer in submission order and then opens the fast
// path. It returns the number of buffered submissions that could not be
// handed to their worker.
func (r *restorer) finish() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.restored() {
		return 0
	}
	lost := 0
	for _, p := range r.buffered {
		if err := p.w.Execute(p.task); err != nil {
			lost++
		}
	}
	r.buffered = nil
	r.state.Store(stateRestored)
	close(r.done)
	return lost
}

// hold records loaded submissions when restore is deferred. It returns the
// submissions to dispatch now, which is all of them once ResumePersisted
// has already been called.
func (r *restorer) hold(subs []*submission) []*submission {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = true
	if r.resumed {
		return subs
	}
	r.held = append(r.held, subs...)
	return nil
}

// resume releases held submissions, or marks them for release on load.
func (r *restorer) resume() []*submission {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.deferred || r.resumed {
		return nil
	}
	r.resumed = true
	if !r.loaded {
		return nil
	}
	held := r.held
	r.held = nil
	return held
}

// restorePersisted runs on the store writer. It replays every incomplete
// record in id order and then lets buffered submissions through. The first
// failure stops the replay and wipes the store.
func (e *Engine) restorePersisted() {
	ctx := e.ctx
	var (
		subs []*submission
		err  error
	)
	err = safely(func() error {
		records, listErr := e.store.ListIncomplete(ctx)
		if listErr != nil {
			return fmt.Errorf("list incomplete: %w", listErr)
		}
		for _, rec := range records {
			sub, restoreErr := e.restoredSubmission(rec)
			if restoreErr != nil {
				return fmt.Errorf("record %d: %w", rec.ID, restoreErr)
			}
			subs = append(subs, sub)
			if !e.restore.deferred {
				e.dispatchRestored(sub)
			}
		}
		return nil
	})

	if err != nil {
		e.logger.Error("restore of persisted actions failed, wiping store",
			slog.Int("restored", len(subs)),
			slog.String("error", err.Error()),
		)
		if wipeErr := safely(func() error { return e.store.DeleteAll(ctx) }); wipeErr != nil {
			e.logger.Error("failed to wipe persisted actions",
				slog.String("error", wipeErr.Error()),
			)
		}
	}

	if e.restore.deferred {
		for _, sub := range e.restore.hold(subs) {
			e.dispatchRestored(sub)
		}
	}

	if lost := e.restore.finish(); lost > 0 {
		e.logger.Warn("buffered submissions dropped by stopped workers", slog.Int("count", lost))
	}

	e.logger.Info("persisted actions restored",
		slog.Int("count", len(subs)),
		slog.Bool("deferred", e.restore.deferred),
	)
	e.extensions.EmitRestoreCompleted(ctx, len(subs), err)
}

// restoredSubmission rebuilds one record as a submission that is already
// persisted under rec.ID.
func (e *Engine) restoredSubmission(rec persist.Record) (*submission, error) {
	snap, err := e.codec.Decode(rec.Data)
	if err != nil {
		return nil, err
	}
	a, err := e.actions.Restore(snap)
	if err != nil {
		return nil, err
	}
	key := a.PreferredKey()
	if key == "" {
		key = courier.DefaultKey
	}
	a.AssignKey(key)
	a.EnsureRetryLimit(e.config.DefaultRetryLimit)

	return &submission{
		engine:    e,
		ctx:       e.ctx,
		key:       key,
		actions:   []*action.Action{a},
		future:    newFuture(),
		scheduler: e.scheduler,
		record:    persistedRecord(rec.ID),
		routed:    true,
	}, nil
}

// dispatchRestored enqueues sub directly on its key worker, ahead of
// anything buffered.
func (e *Engine) dispatchRestored(sub *submission) {
	if err := e.workers.For(sub.key).Execute(func() { e.run(sub) }); err != nil {
		e.logger.Error("failed to enqueue restored action",
			slog.String("action", sub.actions[0].Name()),
			slog.String("key", sub.key),
			slog.String("error", err.Error()),
		)
	}
}
