package middleware

import (
	"context"
	"log/slog"
	"time"

	"daw-bridge/dispatch"
	"daw-bridge/message"
)

// Logging logs every dispatched command with its duration and outcome.
// A nil logger means slog.Default().
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next dispatch.HandlerFunc) dispatch.HandlerFunc {
		return func(ctx context.Context, cmd *message.Command) *message.Response {
			start := time.Now()
			resp := next(ctx, cmd)
			duration := time.Since(start)
			if resp.IsError() {
				logger.Warn("command failed",
					"command", cmd.Name,
					"duration", duration,
					"error", resp.Message,
				)
			} else {
				logger.Debug("command handled",
					"command", cmd.Name,
					"duration", duration,
				)
			}
			return resp
		}
	}
}
