// Package engine is the courier dispatch engine: it routes actions to
// per-key workers, persists the ones that must survive a restart, restores
// them on startup and runs every action through its retry state machine.
//
// # Building an Engine
//
//	eng, err := engine.New(
//	    engine.WithLogger(logger),
//	    engine.WithStore(sqliteStore),
//	    engine.WithPauser(engine.PauseUnless(network.Up)),
//	    engine.WithRetryBackoff(backoff.NewExponential(time.Second, time.Minute)),
//	)
//
// # Registering Restorable Actions
//
// A persistent action is rebuilt by name after a restart, so its name must
// be registered before the engine is created or before it is submitted:
//
//	reg := action.NewRegistry()
//	action.RegisterDefinition(reg, SendEmail)
//	eng, _ := engine.New(engine.WithStore(s), engine.WithRegistry(reg))
//
// # Submitting Work
//
//	// Ordered on the "mail" key, delivered through a Future.
//	a, _ := SendEmail.New(EmailInput{To: "user@example.com"}, action.Persistent())
//	fut, err := eng.SubmitKey(ctx, "mail", a)
//	res, err := fut.Wait(ctx)
//
//	// Unordered, on the concurrent group.
//	fut, err = eng.SubmitAsync(ctx, action.New("warm-cache", warm))
//
//	// On the calling goroutine.
//	res, err = eng.RunBlocking(ctx, action.New("ping", ping))
//
// Inside an action, [Call] runs another action synchronously without going
// back through the worker, and [Unsubscribed] reports whether the
// submitter has gone away.
//
// # Ordering and Durability
//
// Every key other than courier.AsyncKey has one worker goroutine, so
// actions under the same key run one at a time in submission order. A
// persistent action's record is written by a single store-writer
// goroutine before its first attempt, rewritten after every retryable
// failure and deleted before its result is delivered. Records are
// restored in id order, ahead of any submission made while restoring.
//
// # Options
//
//   - [WithStore], [WithRegistry], [WithCodec] enable persistence
//   - [WithKeySelector], [WithPauser], [WithPreparer], [WithScheduler] plug in collaborators
//   - [WithWorker] binds a custom worker to a key
//   - [WithExtension], [WithMiddleware] extend the lifecycle and the attempt chain
//   - [WithRetryBackoff], [WithKeyRateLimit] pace retries and starts
//   - [WithTracerProvider], [WithMeterProvider] set OpenTelemetry providers
//   - [WithDeferredRestore] holds restored actions until [Engine.ResumePersisted]
package engine
