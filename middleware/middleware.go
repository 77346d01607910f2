// Package middleware provides the dispatch-chain middleware for the bridge
// server. Middlewares wrap the dispatch table's handler in an onion:
//
//	Chain(A, B, C)(handler) → A(B(C(handler)))
//	Execution order: A.before → B.before → C.before → handler → C.after → ...
//
// The whole chain runs on the host loop, so middlewares must not block on
// network I/O.
package middleware

import "daw-bridge/dispatch"

// Middleware wraps a dispatch handler with additional behavior.
type Middleware func(next dispatch.HandlerFunc) dispatch.HandlerFunc

// Chain composes middlewares into one. The first middleware is outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(next dispatch.HandlerFunc) dispatch.HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
