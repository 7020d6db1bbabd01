package audit

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/faithlink360/gateway/internal/faithlink/domain"
	"github.com/faithlink360/gateway/pkg/slogx"
)

// LogSink writes security events as warn lines. With a limiter set, lines
// beyond the limiter's rate are dropped and counted instead.
type LogSink struct {
	logger  *slog.Logger
	limiter *rate.Limiter
	dropped atomic.Uint64
}

// NewLogSink logs through logger, or the request logger when nil.
// perSecond <= 0 disables throttling.
func NewLogSink(logger *slog.Logger, perSecond float64) *LogSink {
	s := &LogSink{logger: logger}
	if perSecond > 0 {
		burst := max(int(perSecond), 1)
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return s
}

func (s *LogSink) Emit(ctx context.Context, ev domain.SecurityEvent) {
	if s.limiter != nil && !s.limiter.Allow() {
		s.dropped.Add(1)
		return
	}

	logger := s.logger
	if logger == nil {
		logger = slogx.FromContext(ctx)
	}
	logger.LogAttrs(ctx, slog.LevelWarn, "security_event",
		slog.String("kind", string(ev.Kind)),
		slog.String("ip", ev.IP),
		slog.String("path", ev.Path),
		slog.Time("at", ev.Time),
		slog.Any("detail", ev.Detail),
	)
}

// Dropped is the number of events not logged because of throttling.
func (s *LogSink) Dropped() uint64 { return s.dropped.Load() }

// Multi fans an event out to every sink in order.
type Multi []domain.EventSink

func (m Multi) Emit(ctx context.Context, ev domain.SecurityEvent) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, ev)
		}
	}
}
