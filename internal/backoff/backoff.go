// Package backoff consolidates the ad-hoc retry/backoff logic spec.md §9
// calls out as needing one shared policy across watch reconnect, cleanup
// retries, status-write retries, and reconcile re-scheduling.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Policy is initial/factor/cap/jitter backoff, per spec.md §9.
type Policy struct {
	Initial time.Duration
	Factor  float64
	Cap     time.Duration
	// Jitter is the maximum extra random delay added, uniformly distributed
	// in [0, Jitter).
	Jitter time.Duration
}

// Watch is the reconnect backoff from spec.md §4.2:
// delay = min(60s, 2s * 2^attempts) + U[0,1)s.
var Watch = Policy{
	Initial: 2 * time.Second,
	Factor:  2,
	Cap:     60 * time.Second,
	Jitter:  time.Second,
}

// Cleanup is the exponential backoff for finalizer cleanup retries
// (spec.md §4.6), capped at 30s.
var Cleanup = Policy{
	Initial: time.Second,
	Factor:  2,
	Cap:     30 * time.Second,
	Jitter:  time.Second,
}

// Delay returns the backoff duration for the given zero-based attempt
// number. attempt 0 returns Initial (+ jitter).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	base := float64(p.Initial) * math.Pow(p.Factor, float64(attempt))
	if base > float64(p.Cap) || math.IsInf(base, 1) {
		base = float64(p.Cap)
	}

	d := time.Duration(base)
	if p.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(p.Jitter)))
	}

	return d
}

// RateLimitCap and OtherCap are the watch-reconnect attempt ceilings from
// spec.md §4.2: rate-limit errors get more attempts before giving up logging
// loudly (the caller still keeps reconnecting past the cap, it just stops
// advancing the exponent and emits a louder log line).
const (
	RateLimitCap = 10
	OtherCap     = 5
)
