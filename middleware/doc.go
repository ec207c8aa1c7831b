// Package middleware provides composable middleware for action execution.
//
// A [Middleware] is a function that wraps a single attempt of an action.
// Middleware are composed into a chain using [Chain] and applied on every
// attempt, so a retried action passes through the chain once per attempt.
// They are applied right-to-left: the first middleware in the slice is the
// outermost wrapper.
//
//	// recover → logging → handler
//	chain := middleware.Chain(middleware.Recover(logger), middleware.Logging(logger))
//
// # Built-in Middleware
//
//   - [Logging] logs action name, key, duration and outcome per attempt
//   - [Recover] catches panics and converts them to errors
//   - [Timeout] cancels the attempt context after the action's Timeout
//   - [Tracing] wraps each attempt in an OpenTelemetry span
//   - [Metrics] records per-attempt duration and outcome counters
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, a *action.Action, next middleware.Handler) (any, error) {
//	        // pre-processing
//	        result, err := next(ctx)
//	        // post-processing
//	        return result, err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting.
package middleware
