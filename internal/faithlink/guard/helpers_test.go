package guard_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/faithlink360/gateway/internal/faithlink/domain"
	"github.com/faithlink360/gateway/internal/faithlink/guard"
	"github.com/faithlink360/gateway/internal/faithlink/token"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newCodec(t *testing.T, c *clock) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec(token.Config{Secret: testSecret, Now: c.Now})
	require.NoError(t, err)
	return codec
}

func issue(t *testing.T, codec *token.Codec, sub string, role domain.Role, church string) string {
	t.Helper()
	tok, err := codec.Issue(domain.Claim{Subject: sub, Role: role, ChurchID: church})
	require.NoError(t, err)
	return tok
}

type recorder struct {
	mu     sync.Mutex
	events []domain.SecurityEvent
}

func (r *recorder) Emit(_ context.Context, ev domain.SecurityEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) Kinds() []domain.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func requireReject(t *testing.T, err error, status int, code string) *guard.Error {
	t.Helper()
	ge, ok := guard.AsError(err)
	require.True(t, ok, "expected *guard.Error, got %v", err)
	require.Equal(t, status, ge.Status)
	require.Equal(t, code, ge.Code)
	return ge
}

func identityEnv(role domain.Role, church string) guard.Envelope {
	return guard.Envelope{RemoteIP: "10.0.0.1", Path: "/api/x"}.WithIdentity(domain.Identity{
		Subject:  "user-1",
		Role:     role,
		ChurchID: church,
	})
}
