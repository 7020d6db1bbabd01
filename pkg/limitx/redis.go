package limitx

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// INCR then set the expiry on the first hit of a window, in one round trip.
var incrScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// Redis shares counters between gateway instances. On any Redis failure the
// hit is counted by Fallback instead, so limiting degrades to per-process
// rather than failing open or closed.
type Redis struct {
	Client   redis.UniversalClient
	Prefix   string
	Timeout  time.Duration
	Fallback Store
	Logger   *slog.Logger

	now      func() time.Time
	degraded atomic.Bool
}

func NewRedis(client redis.UniversalClient, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{
		Client:   client,
		Prefix:   "faithlink:rl:",
		Timeout:  500 * time.Millisecond,
		Fallback: NewMemory(),
		Logger:   logger,
		now:      time.Now,
	}
}

func (r *Redis) Incr(ctx context.Context, key string, window time.Duration) (Hit, error) {
	if window <= 0 {
		window = time.Minute
	}
	hit, err := r.incr(ctx, key, window)
	if err == nil {
		if r.degraded.CompareAndSwap(true, false) {
			r.Logger.Info("rate limit store recovered")
		}
		return hit, nil
	}
	if r.Fallback == nil {
		return Hit{}, err
	}
	// Logged once per outage, not once per request.
	if r.degraded.CompareAndSwap(false, true) {
		r.Logger.Warn("rate limit store unavailable, counting locally", "err", err)
	}
	return r.Fallback.Incr(ctx, key, window)
}

func (r *Redis) incr(ctx context.Context, key string, window time.Duration) (Hit, error) {
	if r.Client == nil {
		return Hit{}, fmt.Errorf("limitx: no redis client")
	}
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	res, err := incrScript.Run(ctx, r.Client, []string{r.Prefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Hit{}, fmt.Errorf("limitx: redis incr: %w", err)
	}
	if len(res) != 2 {
		return Hit{}, fmt.Errorf("limitx: unexpected script reply %v", res)
	}

	ttl := time.Duration(res[1]) * time.Millisecond
	if ttl < 0 {
		ttl = window
	}
	return Hit{Count: res[0], ResetAt: r.now().Add(ttl)}, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("limitx: no redis client")
	}
	return r.Client.Ping(ctx).Err()
}
