package jwtx_test

import (
	"testing"
	"time"

	"github.com/faithlink360/gateway/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "faithlink360",
		},
	}

	t.Run("matching issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer("faithlink360"))
	})

	t.Run("empty expected issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer(""))
	})

	t.Run("mismatched issuer", func(t *testing.T) {
		err := c.ValidateIssuer("someone-else")
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})
}

func TestValidateAudience(t *testing.T) {
	c := &jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience: []string{"church-members", "reports"},
		},
	}

	t.Run("contains match", func(t *testing.T) {
		require.NoError(t, c.ValidateAudience([]string{"church-members"}))
	})

	t.Run("multiple match", func(t *testing.T) {
		require.NoError(t, c.ValidateAudience([]string{"foo", "reports"}))
	})

	t.Run("no match", func(t *testing.T) {
		err := c.ValidateAudience([]string{"admin-console"})
		require.ErrorIs(t, err, jwtx.ErrAudience)
	})

	t.Run("empty expected list", func(t *testing.T) {
		require.NoError(t, c.ValidateAudience(nil))
	})
}

func TestNewClaims(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("stamps registered claims", func(t *testing.T) {
		c := jwtx.NewClaims("user-1", "PASTOR", "church-a", "faithlink360",
			[]string{"church-members"}, time.Hour, now)

		require.Equal(t, "user-1", c.Subject)
		require.Equal(t, "PASTOR", c.Role)
		require.Equal(t, "church-a", c.ChurchID)
		require.Equal(t, now, c.IssuedAt.Time)
		require.Equal(t, now.Add(time.Hour), c.ExpiresAt.Time)
		require.NotEmpty(t, c.ID)
	})

	t.Run("zero ttl falls back to default", func(t *testing.T) {
		c := jwtx.NewClaims("user-1", "MEMBER", "", "faithlink360", nil, 0, now)
		require.Equal(t, now.Add(jwtx.DefaultTTL), c.ExpiresAt.Time)
	})

	t.Run("jti is unique", func(t *testing.T) {
		require.NotEqual(t, jwtx.NewJTI(), jwtx.NewJTI())
	})
}
