package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/courier/action"
)

// record tracks the durable copy of a persistent submission. done closes
// once the persist call has returned, successfully or not.
type record struct {
	done chan struct{}
	id   int64
	ok   bool
}

// persistedRecord describes a record that already exists in the store.
func persistedRecord(id int64) *record {
	r := &record{done: make(chan struct{}), id: id, ok: true}
	close(r.done)
	return r
}

// write runs fn on the store writer so that store calls never overlap. If
// the writer has stopped, fn runs on the calling goroutine; storeMu keeps
// it from overlapping writes the stopped writer is still draining.
func (e *Engine) write(fn func()) {
	serial := func() {
		e.storeMu.Lock()
		defer e.storeMu.Unlock()
		fn()
	}
	if err := e.writer.Execute(serial); err != nil {
		if perr := safely(func() error { serial(); return nil }); perr != nil {
			e.logger.Error("store write panicked", slog.String("error", perr.Error()))
		}
	}
}

// writeSync runs fn on the store writer and waits for it.
func (e *Engine) writeSync(fn func()) {
	done := make(chan struct{})
	e.write(func() {
		defer close(done)
		fn()
	})
	<-done
}

// persistAsync queues the initial persist of a. The key worker waits on the
// returned record before the first attempt.
func (e *Engine) persistAsync(ctx context.Context, a *action.Action) *record {
	rec := &record{done: make(chan struct{})}
	e.write(func() {
		defer close(rec.done)
		data, err := e.codec.Encode(a.Snapshot())
		if err != nil {
			e.logger.Error("failed to encode persistent action, running without durability",
				slog.String("action", a.Name()),
				slog.String("key", a.Key()),
				slog.String("error", err.Error()),
			)
			return
		}
		recordID, err := e.store.Persist(ctx, data)
		if err != nil {
			e.logger.Error("failed to persist action, running without durability",
				slog.String("action", a.Name()),
				slog.String("key", a.Key()),
				slog.String("error", err.Error()),
			)
			return
		}
		rec.id, rec.ok = recordID, true
		e.extensions.EmitActionPersisted(ctx, a, recordID)
	})
	return rec
}

// updateRecord rewrites the record with a's current retry state.
func (e *Engine) updateRecord(ctx context.Context, recordID int64, a *action.Action) {
	e.writeSync(func() {
		err := safely(func() error {
			data, err := e.codec.Encode(a.Snapshot())
			if err != nil {
				return err
			}
			return e.store.Update(ctx, recordID, data)
		})
		if err != nil {
			e.logger.Error("failed to update persisted action",
				slog.String("action", a.Name()),
				slog.Int64("record_id", recordID),
				slog.String("error", err.Error()),
			)
		}
	})
}

// deleteRecord removes the record once its action reached a terminal
// outcome.
func (e *Engine) deleteRecord(ctx context.Context, recordID int64, a *action.Action) {
	e.writeSync(func() {
		if err := safely(func() error { return e.store.Delete(ctx, recordID) }); err != nil {
			e.logger.Error("failed to delete persisted action",
				slog.String("action", a.Name()),
				slog.Int64("record_id", recordID),
				slog.String("error", err.Error()),
			)
		}
	})
}

// safely runs fn and turns a panic into an error.
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
