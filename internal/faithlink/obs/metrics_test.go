package obs_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/faithlink360/gateway/internal/faithlink/domain"
	"github.com/faithlink360/gateway/internal/faithlink/obs"
)

func TestInstrument(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := obs.New(reg)

	h := m.Instrument("GET /api/members", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	for range 2 {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/members?churchId=x", nil))
	}

	expected := `
# HELP http_requests_total Total number of HTTP requests.
# TYPE http_requests_total counter
http_requests_total{method="GET",route="GET /api/members",status="403"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "http_requests_total"))
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := obs.New(reg)

	m.RecordRejection("TOKEN_MISSING")
	m.RecordRejection("TOKEN_MISSING")
	m.Emit(context.Background(), domain.SecurityEvent{Kind: domain.EventBotAccess})

	count, err := testutil.GatherAndCount(reg, "faithlink_security_events_total")
	require.NoError(t, err)
	require.Equal(t, len(domain.EventKinds), count, "every kind is pre-registered")

	expected := `
# HELP faithlink_gate_rejections_total Requests rejected by a gate, by error code.
# TYPE faithlink_gate_rejections_total counter
faithlink_gate_rejections_total{code="TOKEN_MISSING"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "faithlink_gate_rejections_total"))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := obs.New(reg)
	m.SetBuildInfo("1.2.3")

	rec := httptest.NewRecorder()
	obs.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `faithlink_build_info{version="1.2.3"} 1`)
	require.Contains(t, rec.Body.String(), `faithlink_security_events_total{kind="XSS_ATTEMPT"} 0`)
}
