package slogx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/faithlink360/gateway/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		require.Equal(t, want, slogx.ParseLevel(in), in)
	}
}

func TestFromContextDefault(t *testing.T) {
	require.Equal(t, slog.Default(), slogx.FromContext(context.Background()))
}

func TestHTTPMiddleware(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := slogx.New(slogx.Config{Service: "faithlink", Env: "test", Output: &buf})

	var seenID string
	h := slogx.HTTPMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = slogx.RequestID(r.Context())
		slogx.FromContext(r.Context()).Info("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("honours incoming request id", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/api/members", nil)
		req.Header.Set("X-Request-ID", "01ARZ3NDEKTSV4RRFFQ69G5FAV")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", seenID)
		require.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", rec.Header().Get("X-Request-ID"))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)

		var access map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[1]), &access))
		require.Equal(t, "http_request", access["msg"])
		require.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", access["req_id"])
		require.EqualValues(t, http.StatusTeapot, access["status"])
		require.Equal(t, "faithlink", access["service"])
	})

	t.Run("replaces malformed request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-123\ninjected")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Len(t, seenID, 26)
		require.NotContains(t, seenID, "req-123")
		require.Equal(t, seenID, rec.Header().Get("X-Request-ID"))
	})

	t.Run("generates one when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Len(t, seenID, 26)
		require.Equal(t, seenID, rec.Header().Get("X-Request-ID"))
	})
}
