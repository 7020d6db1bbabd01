//go:build e2e

package gateway_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/faithlink360/gateway/pkg/faithlinksdk"
)

func TestHealth(t *testing.T) {
	g := startGateway(t, nil)
	ctx := context.Background()

	live, err := g.client().GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	ready, err := g.client().GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Checks["database"])
	require.Equal(t, "local", ready.Checks["counters"])
}

func TestMemberJourney(t *testing.T) {
	g := startGateway(t, nil)
	g.addUser(t, "ruth@church-a.org", "PASTOR", "church-a")
	g.addUser(t, "lydia@church-b.org", "MEMBER", "church-b")
	g.addUser(t, "paul@hq.org", "ADMIN", "hq")

	ctx := context.Background()
	client := g.client()

	pastor, err := client.Login(ctx, "ruth@church-a.org", testPassword)
	require.NoError(t, err)

	me, err := pastor.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "church-a", me.User.ChurchID)

	dir, err := pastor.ListMembers(ctx, "church-a")
	require.NoError(t, err)
	require.Len(t, dir.Members, 1)

	_, err = pastor.ListMembers(ctx, "church-b")
	require.True(t, faithlinksdk.IsCode(err, faithlinksdk.CodeChurchAccessDenied), "%v", err)

	admin, err := client.Login(ctx, "paul@hq.org", testPassword)
	require.NoError(t, err)
	dir, err = admin.ListMembers(ctx, "church-b")
	require.NoError(t, err)
	require.Equal(t, "church-b", dir.ChurchID)
	require.Len(t, dir.Members, 1)

	token := pastor.Token()
	require.NoError(t, pastor.Logout(ctx))
	_, err = client.NewSessionFromToken(token, 3600).Me(ctx)
	require.True(t, faithlinksdk.IsCode(err, faithlinksdk.CodeTokenInvalid), "%v", err)
}

// Two gateways sharing Redis enforce one login budget between them.
func TestSharedLoginLimit(t *testing.T) {
	nw := startRedis(t)
	env := map[string]string{"REDIS_ADDR": "redis:6379", "RATELIMIT_AUTH_MAX": "4"}
	a := startGateway(t, env, nw)
	b := startGateway(t, env, nw)
	ctx := context.Background()

	ready, err := a.client().GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Checks["counters"])

	for i, g := range []*gateway{a, b, a, b} {
		_, err := g.client().Login(ctx, "nobody@example.org", "wrong-password")
		require.True(t, faithlinksdk.IsCode(err, faithlinksdk.CodeInvalidCredentials), "attempt %d: %v", i+1, err)
	}

	_, err = b.client().Login(ctx, "nobody@example.org", "wrong-password")
	var apiErr *faithlinksdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, faithlinksdk.CodeAuthRateLimitExceeded, apiErr.Code)
	require.Positive(t, apiErr.RetryAfter)
}
