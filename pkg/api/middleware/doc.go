// Package middleware provides the HTTP middleware chain of the layout server.
//
// Every middleware has the shape func(http.Handler) http.Handler and is
// applied outermost first:
//
//	handler := middleware.Chain(mux,
//		middleware.RequestID(),
//		middleware.Recovery(logger),
//		middleware.Logging(logger),
//		middleware.Metrics(registry),
//		middleware.RateLimit(limiter, middleware.ClientIP(nil), registry),
//		middleware.BodySizeLimit(cfg.Server.MaxBodyBytes),
//	)
package middleware

import "net/http"

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Chain applies mws to h so that the first middleware sees the request first.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
