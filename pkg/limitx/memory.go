package limitx

import (
	"context"
	"sync"
	"time"
)

const sweepEvery = time.Minute

// Memory is a process local Store. Counters are lost on restart.
type Memory struct {
	mu        sync.Mutex
	items     map[string]entry
	now       func() time.Time
	lastSweep time.Time
}

type entry struct {
	count   int64
	resetAt time.Time
}

type MemoryOption func(*Memory)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		items: make(map[string]entry),
		now:   time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	m.lastSweep = m.now()
	return m
}

func (m *Memory) Incr(_ context.Context, key string, window time.Duration) (Hit, error) {
	if window <= 0 {
		window = time.Minute
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.maybeSweep(now)

	cur, ok := m.items[key]
	if !ok || !now.Before(cur.resetAt) {
		cur = entry{resetAt: now.Add(window)}
	}
	cur.count++
	m.items[key] = cur

	return Hit{Count: cur.count, ResetAt: cur.resetAt}, nil
}

// Len reports how many keys are currently tracked.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// maybeSweep drops expired windows so ephemeral client keys do not pile up.
// Caller holds mu.
func (m *Memory) maybeSweep(now time.Time) {
	if now.Sub(m.lastSweep) < sweepEvery {
		return
	}
	m.lastSweep = now
	for k, v := range m.items {
		if !now.Before(v.resetAt) {
			delete(m.items, k)
		}
	}
}
