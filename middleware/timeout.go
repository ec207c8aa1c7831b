package middleware

import (
	"context"
	"log/slog"

	"github.com/xraph/courier/action"
)

// Timeout returns middleware that enforces a per-attempt deadline.
// If the action has a non-zero Timeout, a context.WithTimeout wraps the
// handler call. When the deadline passes the context is cancelled and the
// action should return context.DeadlineExceeded.
func Timeout(logger *slog.Logger) Middleware {
	return func(ctx context.Context, a *action.Action, next Handler) (any, error) {
		if d := a.Timeout(); d > 0 {
			logger.Debug("action timeout set",
				slog.String("action", a.Name()),
				slog.Duration("timeout", d),
			)
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return next(ctx)
	}
}
