// Package limitx provides fixed-window hit counters shared by the rate limit
// and slow down guards. The store is always injected, there is no package
// level state.
package limitx

import (
	"context"
	"time"
)

// Hit is the state of one key after an increment.
type Hit struct {
	// Count of hits in the current window, including this one.
	Count int64
	// ResetAt is when the current window ends and the count starts over.
	ResetAt time.Time
}

// RetryAfter returns the remaining window rounded up to whole seconds, never
// less than one.
func (h Hit) RetryAfter(now time.Time) int {
	d := h.ResetAt.Sub(now)
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// Store counts hits per key. Incr must be atomic per key: two concurrent
// callers never observe the same Count.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (Hit, error)
}

// Pinger is implemented by stores with a remote backend.
type Pinger interface {
	Ping(ctx context.Context) error
}
