package guard

import (
	"context"
	"time"

	"github.com/faithlink360/gateway/pkg/limitx"
	"github.com/faithlink360/gateway/pkg/slogx"
)

type SlowDownConfig struct {
	Window     time.Duration
	DelayAfter int64         // requests per window served at full speed
	Delay      time.Duration // added per request beyond DelayAfter
	MaxDelay   time.Duration // cap, zero means uncapped

	// Sleep waits for d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

var DefaultSlowDown = SlowDownConfig{
	Window:     15 * time.Minute,
	DelayAfter: 50,
	Delay:      500 * time.Millisecond,
	MaxDelay:   20 * time.Second,
}

// DelayFor returns the delay for the count-th request of a window:
// (count-DelayAfter)*Delay, capped at MaxDelay.
func (c SlowDownConfig) DelayFor(count int64) time.Duration {
	if count <= c.DelayAfter || c.Delay <= 0 {
		return 0
	}
	over := count - c.DelayAfter
	if c.MaxDelay > 0 && over > int64(c.MaxDelay/c.Delay) {
		return c.MaxDelay
	}
	return time.Duration(over) * c.Delay
}

// SlowDown delays rather than rejects clients that keep hammering the API.
// The delay ends early if the client goes away.
func SlowDown(store limitx.Store, cfg SlowDownConfig) Gate {
	if cfg.Window <= 0 {
		cfg.Window = DefaultSlowDown.Window
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepCtx
	}

	return func(ctx context.Context, env Envelope) (Envelope, error) {
		hit, err := store.Incr(ctx, "slow:"+env.RemoteIP, cfg.Window)
		if err != nil {
			slogx.FromContext(ctx).Warn("slow down store failed, not delaying", "err", err)
			return env, nil
		}

		d := cfg.DelayFor(hit.Count)
		if d == 0 {
			return env, nil
		}
		slogx.FromContext(ctx).Debug("slowing down client", "ip", env.RemoteIP, "delay", d, "count", hit.Count)
		if err := cfg.Sleep(ctx, d); err != nil {
			return env, err
		}
		return env, nil
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
