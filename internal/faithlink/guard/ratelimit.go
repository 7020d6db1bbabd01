package guard

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/faithlink360/gateway/internal/faithlink/domain"
	"github.com/faithlink360/gateway/pkg/limitx"
	"github.com/faithlink360/gateway/pkg/slogx"
)

// Limit configures one rate limit profile.
type Limit struct {
	Name    string // key prefix, keeps profiles from sharing counters
	Window  time.Duration
	Max     int64
	Code    string
	Message string
}

var (
	// APILimit applies to every /api route.
	APILimit = Limit{
		Name:    "api",
		Window:  15 * time.Minute,
		Max:     100,
		Code:    CodeRateLimitExceeded,
		Message: "Too many requests from this IP, please try again later.",
	}

	// AuthLimit is the brute force profile for login.
	AuthLimit = Limit{
		Name:    "auth",
		Window:  15 * time.Minute,
		Max:     10,
		Code:    CodeAuthRateLimitExceeded,
		Message: "Too many authentication attempts, please try again later.",
	}
)

// RateLimit counts requests per client IP inside a fixed window. Once the
// count passes Max, every further request in that window is rejected with
// 429 and a retryAfter equal to the rest of the window in seconds.
//
// A failing counter store lets the request through; limiting never takes
// the API down with it.
func RateLimit(store limitx.Store, lim Limit, events domain.EventSink) Gate {
	if lim.Window <= 0 {
		lim.Window = APILimit.Window
	}
	if lim.Code == "" {
		lim.Code = CodeRateLimitExceeded
	}
	if events == nil {
		events = domain.DiscardEvents
	}

	return func(ctx context.Context, env Envelope) (Envelope, error) {
		hit, err := store.Incr(ctx, lim.Name+":"+env.RemoteIP, lim.Window)
		if err != nil {
			slogx.FromContext(ctx).Warn("rate limit store failed, allowing request",
				"limit", lim.Name, "err", err)
			return env, nil
		}
		if hit.Count <= lim.Max {
			return env, nil
		}

		retryAfter := min(hit.RetryAfter(receivedAt(env)), max(int(lim.Window/time.Second), 1))

		events.Emit(ctx, domain.SecurityEvent{
			Kind: domain.EventRateLimitExceeded,
			IP:   env.RemoteIP,
			Path: env.Path,
			Time: receivedAt(env),
			Detail: map[string]any{
				"limit": lim.Name,
				"count": hit.Count,
			},
		})

		e := reject(http.StatusTooManyRequests, lim.Code, lim.Message)
		e.Extra = map[string]any{"retryAfter": retryAfter}
		e.Header = http.Header{}
		e.Header.Set("Retry-After", strconv.Itoa(retryAfter))
		e.Header.Set("X-RateLimit-Limit", strconv.FormatInt(lim.Max, 10))
		e.Header.Set("X-RateLimit-Remaining", "0")
		return env, e
	}
}

func receivedAt(env Envelope) time.Time {
	if env.Received.IsZero() {
		return time.Now()
	}
	return env.Received
}
