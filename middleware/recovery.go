package middleware

import (
	"context"
	"log/slog"

	"daw-bridge/dispatch"
	"daw-bridge/message"
)

// Recovery converts a handler panic into a command-execution error response,
// so one bad request can never take down the host loop. The panic value is
// logged; only the classified message crosses the wire.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next dispatch.HandlerFunc) dispatch.HandlerFunc {
		return func(ctx context.Context, cmd *message.Command) (resp *message.Response) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("handler panic",
						"command", cmd.Name,
						"panic", r,
					)
					resp = message.NewError(
						message.ErrCommandFailed("handler panic in %s", cmd.Name).Error(),
						cmd.ID,
					)
				}
			}()
			return next(ctx, cmd)
		}
	}
}
