package faithlinksdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeGateway(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Password != "s3cret-pass" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"error":"Invalid email or password","code":"INVALID_CREDENTIALS"}`))
			return
		}
		role := "PASTOR"
		if req.Email == "boaz@church-a.org" {
			role = "MEMBER"
		}
		_ = json.NewEncoder(w).Encode(LoginResponse{
			Success: true, Token: "tok-" + role, ExpiresIn: 3600,
			User: Member{ID: "u1", Email: req.Email, Role: role, ChurchID: "church-a"},
		})
	})
	mux.HandleFunc("GET /api/members", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer tok-MEMBER" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"success":false,"error":"Insufficient permissions","code":"INSUFFICIENT_PERMISSIONS","required":["ADMIN"],"current":"MEMBER"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(MembersResponse{Success: true, ChurchID: "church-a", Members: []Member{{ID: "u1"}}})
	})
	mux.HandleFunc("GET /api/churches/{churchId}/members", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"success":false,"error":"Too many requests","code":"RATE_LIMIT_EXCEEDED","retryAfter":12}`))
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(SuccessResponse{Success: true})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := NewSDKClient(fakeGateway(t).URL + "/")

	t.Run("success", func(t *testing.T) {
		s, err := client.Login(ctx, "ruth@church-a.org", "s3cret-pass")
		require.NoError(t, err)
		require.Equal(t, "tok-PASTOR", s.Token())
		require.Equal(t, "PASTOR", s.Member().Role)
	})

	t.Run("bad credentials", func(t *testing.T) {
		_, err := client.Login(ctx, "ruth@church-a.org", "wrong")
		require.True(t, IsCode(err, CodeInvalidCredentials))

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	})
}

func TestListMembers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := NewSDKClient(fakeGateway(t).URL)

	s, err := client.Login(ctx, "ruth@church-a.org", "s3cret-pass")
	require.NoError(t, err)

	out, err := s.ListMembers(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "church-a", out.ChurchID)
	require.Len(t, out.Members, 1)

	_, err = s.ListMembers(ctx, "church-b")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, CodeRateLimitExceeded, apiErr.Code)
	require.Equal(t, 12, apiErr.RetryAfter)

	t.Run("role checked locally", func(t *testing.T) {
		member, err := client.Login(ctx, "boaz@church-a.org", "s3cret-pass")
		require.NoError(t, err)

		_, err = member.ListMembers(ctx, "")
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "MEMBER", apiErr.Current)
	})

	t.Run("role checked by the server", func(t *testing.T) {
		unchecked := NewSDKClient(client.BaseURL)
		unchecked.CheckRoles = false
		member, err := unchecked.Login(ctx, "boaz@church-a.org", "s3cret-pass")
		require.NoError(t, err)

		_, err = member.ListMembers(ctx, "")
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, []string{"ADMIN"}, apiErr.Required)
	})
}

func TestLogoutEndsSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := NewSDKClient(fakeGateway(t).URL)

	s, err := client.Login(ctx, "ruth@church-a.org", "s3cret-pass")
	require.NoError(t, err)
	require.NoError(t, s.Logout(ctx))

	_, err = s.ListMembers(ctx, "")
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestNonGatewayError(t *testing.T) {
	t.Parallel()
	client := NewSDKClient(fakeGateway(t).URL)

	_, err := client.GetReadiness(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	require.Equal(t, CodeInternalError, apiErr.Code)
}
