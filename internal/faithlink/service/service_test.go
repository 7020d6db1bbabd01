package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/faithlink360/gateway/internal/faithlink/domain"
	"github.com/faithlink360/gateway/internal/faithlink/service"
	"github.com/faithlink360/gateway/internal/faithlink/store"
	"github.com/faithlink360/gateway/internal/faithlink/store/drivers/sqlite"
	"github.com/faithlink360/gateway/internal/faithlink/token"
	"github.com/faithlink360/gateway/pkg/cryptox"
	"github.com/faithlink360/gateway/pkg/slogx"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store *sqlite.Store
	codec *token.Codec
	auth  *service.AuthService
	users *service.UserService
}

func setup(t *testing.T) fixture {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	codec, err := token.NewCodec(token.Config{Secret: []byte("0123456789abcdef0123456789abcdef")})
	require.NoError(t, err)

	hasher := cryptox.NewHasher("pepper")
	return fixture{
		store: st,
		codec: codec,
		auth:  &service.AuthService{Store: st, Codec: codec, Hasher: hasher},
		users: &service.UserService{Store: st, Hasher: hasher},
	}
}

func TestUserService(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	t.Run("create", func(t *testing.T) {
		u, err := f.users.CreateUser(ctx, service.CreateUserRequest{
			Email:    "naomi@church-a.org",
			Password: "correct horse",
			Role:     domain.RoleCareTeam,
			ChurchID: "church-a",
		})
		require.NoError(t, err)
		require.NotEmpty(t, u.ID)
		require.Equal(t, "naomi", u.DisplayName)
		require.NotEqual(t, "correct horse", u.PasswordHash)

		got, err := f.users.GetUser(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Email, got.Email)
	})

	t.Run("duplicate", func(t *testing.T) {
		_, err := f.users.CreateUser(ctx, service.CreateUserRequest{
			Email: "naomi@church-a.org", Password: "another pass", Role: domain.RoleMember,
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("validation", func(t *testing.T) {
		for name, req := range map[string]service.CreateUserRequest{
			"bad email":      {Email: "nope", Password: "long enough", Role: domain.RoleMember},
			"short password": {Email: "a@b.org", Password: "short", Role: domain.RoleMember},
			"unknown role":   {Email: "a@b.org", Password: "long enough", Role: "OWNER"},
			"leading space":  {Email: "a@b.org", Password: " leading-space-pw", Role: domain.RoleMember},
			"handler-like":   {Email: "a@b.org", Password: "my-onion=secret", Role: domain.RoleMember},
			"script scheme":  {Email: "a@b.org", Password: "javascript:hunter2", Role: domain.RoleMember},
		} {
			_, err := f.users.CreateUser(ctx, req)
			require.ErrorIs(t, err, service.ErrInvalidInput, name)
		}
	})

	t.Run("empty church uses default", func(t *testing.T) {
		u, err := f.users.CreateUser(ctx, service.CreateUserRequest{
			Email: "eli@example.org", Password: "long enough", Role: domain.RoleMember,
		})
		require.NoError(t, err)
		require.Equal(t, domain.DefaultChurchID, u.ChurchID)
	})

	t.Run("list members", func(t *testing.T) {
		members, err := f.users.ListMembers(ctx, "church-a")
		require.NoError(t, err)
		require.Len(t, members, 1)
		require.Equal(t, "naomi@church-a.org", members[0].Email)

		_, err = f.users.ListMembers(ctx, "")
		require.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestAuthService(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.users.CreateUser(ctx, service.CreateUserRequest{
		Email: "ruth@church-a.org", Password: "s3cret-pass", Role: domain.RolePastor, ChurchID: "church-a",
	})
	require.NoError(t, err)

	t.Run("login issues a church scoped token", func(t *testing.T) {
		sess, err := f.auth.Login(ctx, " RUTH@church-a.org ", "s3cret-pass")
		require.NoError(t, err)
		require.Equal(t, f.codec.TTL(), sess.ExpiresIn)

		id, err := f.codec.Verify(sess.Token)
		require.NoError(t, err)
		require.Equal(t, sess.User.ID, id.Subject)
		require.Equal(t, domain.RolePastor, id.Role)
		require.Equal(t, "church-a", id.ChurchID)
	})

	t.Run("bad credentials are indistinguishable", func(t *testing.T) {
		_, errWrongPass := f.auth.Login(ctx, "ruth@church-a.org", "wrong")
		_, errNoUser := f.auth.Login(ctx, "ghost@church-a.org", "s3cret-pass")
		_, errEmpty := f.auth.Login(ctx, "", "")
		require.ErrorIs(t, errWrongPass, service.ErrInvalidCredentials)
		require.ErrorIs(t, errNoUser, service.ErrInvalidCredentials)
		require.ErrorIs(t, errEmpty, service.ErrInvalidCredentials)
	})

	t.Run("logout revokes", func(t *testing.T) {
		sess, err := f.auth.Login(ctx, "ruth@church-a.org", "s3cret-pass")
		require.NoError(t, err)
		id, err := f.codec.Verify(sess.Token)
		require.NoError(t, err)

		revoked, err := f.auth.IsRevoked(ctx, id.TokenID)
		require.NoError(t, err)
		require.False(t, revoked)

		require.NoError(t, f.auth.Logout(ctx, id))
		revoked, err = f.auth.IsRevoked(ctx, id.TokenID)
		require.NoError(t, err)
		require.True(t, revoked)

		require.ErrorIs(t, f.auth.Logout(ctx, domain.Identity{}), service.ErrInvalidInput)
	})
}

func TestHousekeeping(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	revs := f.store.Revocations()
	require.NoError(t, revs.RevokeToken(ctx, domain.Revocation{TokenID: "a", Subject: "u", ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, revs.RevokeToken(ctx, domain.Revocation{TokenID: "b", Subject: "u", ExpiresAt: now.Add(time.Hour)}))

	hk := service.NewHousekeepingService(f.store, slogx.Discard(), time.Hour)
	hk.Now = func() time.Time { return now }
	require.EqualValues(t, 1, hk.Cleanup(ctx))

	t.Run("start and stop", func(t *testing.T) {
		hk := service.NewHousekeepingService(f.store, slogx.Discard(), 0)
		require.Equal(t, time.Hour, hk.Interval)
		hk.Start()
		hk.Stop()
	})
}

func TestHousekeepingStopWithoutStart(t *testing.T) {
	f := setup(t)
	hk := service.NewHousekeepingService(f.store, slogx.Discard(), time.Minute)
	hk.Stop()
}
