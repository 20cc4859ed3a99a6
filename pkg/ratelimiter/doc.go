// Package ratelimiter implements a token bucket limiter with a pluggable store.
//
// The SMTP transport uses it to cap outbound message rate (SMTP_RATE_LIMIT
// messages per SMTP_RATE_DELTA):
//
//	limiter, err := ratelimiter.NewBucket(
//		ratelimiter.NewMemoryStore(),
//		ratelimiter.PerInterval(5, time.Second),
//	)
//	if err := limiter.Wait(ctx, "smtp"); err != nil {
//		return err
//	}
//
// Allow is the non-blocking variant; a denied Result reports RetryAfter.
// Middleware applies Allow per request, keyed by client address for the
// public submission endpoints.
package ratelimiter
