// Package courier provides an in-process action dispatch engine for Go.
//
// Callers submit actions tagged with a routing key. Every action submitted
// under the same key runs on one dedicated goroutine in submission order.
// Actions submitted under the reserved [AsyncKey] run concurrently instead.
// Persistent actions are recorded in a durable store before they run, so
// work that was unfinished when the process exited is replayed on the next
// start, ahead of any newly submitted work.
//
// Courier is a library, not a service. The root package holds shared
// configuration, routing keys and sentinel errors; the engine package wires
// the worker registry, the restore coordinator and the per-submission state
// machine together.
//
// # Quick Start
//
//	reg := action.NewRegistry()
//	action.RegisterDefinition(reg, sendEmail)
//
//	eng, err := engine.New(
//	    engine.WithStore(sqliteStore),
//	    engine.WithRegistry(reg),
//	)
//
//	a, _ := sendEmail.New(emailPayload{To: "alice@example.com"}, action.Persistent())
//	fut, err := eng.Submit(ctx, a)
//	result, err := fut.Wait(ctx)
//
// # Ordering
//
// Strict FIFO holds per ordered key. There is no ordering across keys or
// within [AsyncKey]. Restored actions for a key are always enqueued before
// anything submitted while the restore was in progress.
package courier
