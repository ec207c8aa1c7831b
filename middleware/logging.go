package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/courier/action"
)

// Logging returns middleware that logs the start and outcome of each attempt.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, a *action.Action, next Handler) (any, error) {
		logger.Debug("action started",
			slog.String("action", a.Name()),
			slog.String("key", a.Key()),
			slog.Int("retry_count", a.RetryCount()),
		)

		start := time.Now()
		result, err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Warn("action attempt failed",
				slog.String("action", a.Name()),
				slog.String("key", a.Key()),
				slog.Int("retry_count", a.RetryCount()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Debug("action completed",
				slog.String("action", a.Name()),
				slog.String("key", a.Key()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return result, err
	}
}
