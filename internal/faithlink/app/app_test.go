package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/faithlink360/gateway/internal/faithlink/app"
	"github.com/faithlink360/gateway/internal/faithlink/domain"
	"github.com/faithlink360/gateway/internal/faithlink/service"
	"github.com/faithlink360/gateway/pkg/cryptox"
	"github.com/faithlink360/gateway/pkg/faithlinksdk"
)

func testConfig(t *testing.T) app.Config {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	cfg, err := app.LoadConfig("")
	require.NoError(t, err)
	dir := t.TempDir()
	cfg.DatabaseFile = filepath.Join(dir, "faithlink.db")
	cfg.PepperFile = filepath.Join(dir, "pepper")
	return cfg
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)

	// Seed a member the way the CLI does.
	db, err := app.OpenStore(cfg)
	require.NoError(t, err)
	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	require.NoError(t, err)
	users := &service.UserService{Store: db, Hasher: cryptox.NewHasher(pepper)}
	_, err = users.CreateUser(context.Background(), service.CreateUserRequest{
		Email: "ruth@church-a.org", Password: "s3cret-pass", Role: domain.RolePastor, ChurchID: "church-a",
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	a, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	h := a.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := json.Marshal(map[string]string{"email": "ruth@church-a.org", "password": "s3cret-pass"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Contains(t, rec.Body.String(), "go_goroutines")
	require.Contains(t, rec.Body.String(), `faithlink_build_info{version="`+app.BuildVersion+`"} 1`)
}

func TestNewRejectsInsecureProduction(t *testing.T) {
	cfg := testConfig(t)
	cfg.Env = "prod"
	cfg.JWTSecret = ""

	_, err := app.New(cfg)
	require.ErrorContains(t, err, "JWT_SECRET")
}

func TestEndToEndWithSDK(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	db, err := app.OpenStore(cfg)
	require.NoError(t, err)
	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	require.NoError(t, err)
	users := &service.UserService{Store: db, Hasher: cryptox.NewHasher(pepper)}
	for _, req := range []service.CreateUserRequest{
		{Email: "ruth@church-a.org", Password: "s3cret-pass", Role: domain.RolePastor, ChurchID: "church-a", DisplayName: "Ruth"},
		{Email: "boaz@church-a.org", Password: "s3cret-pass", Role: domain.RoleMember, ChurchID: "church-a", DisplayName: "Boaz"},
		{Email: "lydia@church-b.org", Password: "s3cret-pass", Role: domain.RoleMember, ChurchID: "church-b"},
	} {
		_, err := users.CreateUser(ctx, req)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	a, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	client := faithlinksdk.NewSDKClient(srv.URL)

	health, err := client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "local", health.Checks["counters"])

	pastor, err := client.Login(ctx, "ruth@church-a.org", "s3cret-pass")
	require.NoError(t, err)

	me, err := pastor.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "church-a", me.User.ChurchID)
	require.NotNil(t, me.Profile)
	require.Equal(t, "Ruth", me.Profile.DisplayName)

	dir, err := pastor.ListMembers(ctx, "")
	require.NoError(t, err)
	require.Len(t, dir.Members, 2)

	_, err = pastor.ListMembers(ctx, "church-b")
	require.True(t, faithlinksdk.IsCode(err, faithlinksdk.CodeChurchAccessDenied), "%v", err)

	member, err := client.Login(ctx, "boaz@church-a.org", "s3cret-pass")
	require.NoError(t, err)
	client.CheckRoles = false
	_, err = member.ListMembers(ctx, "")
	require.True(t, faithlinksdk.IsCode(err, faithlinksdk.CodeInsufficientPermissions), "%v", err)

	// A revoked token is refused by the gateway even though it has not expired.
	token := pastor.Token()
	require.NoError(t, pastor.Logout(ctx))
	replay := client.NewSessionFromToken(token, 3600)
	_, err = replay.Me(ctx)
	require.True(t, faithlinksdk.IsCode(err, faithlinksdk.CodeTokenInvalid), "%v", err)
}
