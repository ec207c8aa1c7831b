// Package audithook is a courier extension that turns action lifecycle
// events into structured audit records.
//
// Submissions, durable writes, retries and terminal outcomes each produce
// an [AuditEvent] sent through the [Recorder] interface. Severity is info
// for normal operation, warning for retries and abandonment, and critical
// for terminal failures.
//
// # Usage
//
//	eng, _ := engine.New(engine.WithExtension(
//	    audithook.New(audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
//	        return auditLog.Append(ctx, evt)
//	    })),
//	))
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionFailed,
//	        audithook.ActionAbandoned,
//	    ),
//	)
package audithook
