// Package ratelimit keeps outbound API traffic under Riot's key limits.
//
// DualWindow enforces a short burst cap and a rolling window cap at the same
// time, the way a Riot development key is limited (20 requests per second and
// 100 requests per two minutes). It records one timestamp per admitted request
// and prunes them to the rolling window on every call.
//
// Wait blocks:
//   - while the window is full, it sleeps until the oldest timestamp leaves
//     the window, re-checking until there is room
//   - if the last perSecond requests all happened within one second, it sleeps
//     once until the earliest of them is a second old
//
// Every sleep gets a small safety margin added to absorb clock skew. Allow is
// the non-blocking form: it records and returns true only if both caps have room.
//
// A single limiter must be shared by every call site that talks to the same key:
//
//	limiter := ratelimit.NewDefault(ratelimit.WithOnWait(func(limit string, d time.Duration) {
//	    logger.LogRateLimit(log, limit, d)
//	}))
//	limiter.Wait()
//	// issue exactly one request
package ratelimit
