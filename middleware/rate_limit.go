package middleware

import (
	"context"

	"golang.org/x/time/rate"

	"daw-bridge/dispatch"
	"daw-bridge/message"
)

// RateLimit rejects commands beyond r per second (token bucket with the
// given burst). Rejected commands get an error response without running the
// handler, keeping a misbehaving controller from saturating the host loop.
func RateLimit(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next dispatch.HandlerFunc) dispatch.HandlerFunc {
		return func(ctx context.Context, cmd *message.Command) *message.Response {
			if !limiter.Allow() {
				return message.NewError(
					message.ErrCommandFailed("rate limit exceeded for %s", cmd.Name).Error(),
					cmd.ID,
				)
			}
			return next(ctx, cmd)
		}
	}
}
