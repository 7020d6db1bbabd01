package http

import (
	"net/http"
	"time"

	"github.com/faithlink360/gateway/internal/faithlink/store"
	"github.com/faithlink360/gateway/pkg/httpx"
	"github.com/faithlink360/gateway/pkg/limitx"
)

// LivezHandler always answers 200 while the process is up.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler checks the database and, when it has a remote backend, the
// counter store. A failing counter store only degrades: the gates fall back
// to local counting.
func ReadyzHandler(startTime time.Time, version string, st store.Store, limits limitx.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"database": "ok"}
		status := "ok"
		code := http.StatusOK

		if st == nil {
			checks["database"] = "disabled"
		} else if err := st.Ping(r.Context()); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		if p, ok := limits.(limitx.Pinger); ok {
			checks["counters"] = "ok"
			if err := p.Ping(r.Context()); err != nil {
				checks["counters"] = "error: " + err.Error()
				status = "degraded"
			}
		} else {
			checks["counters"] = "local"
		}

		httpx.WriteJSON(w, code, HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
