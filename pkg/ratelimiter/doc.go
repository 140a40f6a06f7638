// Package ratelimiter implements a per-key token bucket used to throttle
// calls that reach the billing provider.
//
// A bucket starts full with Capacity tokens and regains RefillRate tokens
// every RefillInterval, never exceeding Capacity. Each Allow consumes one
// token; a negative remainder means the call is denied.
//
//	lim, err := ratelimiter.New(ratelimiter.NewMemoryStore(), cfg)
//	r.With(ratelimiter.Middleware(lim, keyFn, onLimited)).Get("/verify", h)
package ratelimiter
