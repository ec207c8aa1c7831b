package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/courier/action"
)

// Recover returns middleware that recovers from panics in the handler chain.
// Panics are converted to errors and logged with a stack trace, so a
// panicking attempt counts as a failed attempt and is subject to retry.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, a *action.Action, next Handler) (result any, retErr error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("action panicked",
					slog.String("action", a.Name()),
					slog.String("key", a.Key()),
					slog.Int("retry_count", a.RetryCount()),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				result = nil
				retErr = fmt.Errorf("panic in action %s: %v", a.Name(), r)
			}
		}()
		return next(ctx)
	}
}
