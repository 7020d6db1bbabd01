// Package audit writes request/response audit lines for sensitive routes and
// turns suspicious request patterns into security events.
package audit

import (
	"bytes"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/faithlink360/gateway/pkg/httpx"
	"github.com/faithlink360/gateway/pkg/slogx"
)

var SensitivePrefixes = []string{
	"/api/auth",
	"/api/members",
	"/api/bulk-upload",
	"/api/care",
	"/api/communications",
	"/api/settings",
}

var tenantScope = regexp.MustCompile(`^/api/churches/[^/]+`)

// IsSensitive reports whether path touches member or credential data.
// Tenant scoped paths are checked with the /api/churches/{id} segment
// folded away, so /api/churches/c1/members counts as /api/members.
func IsSensitive(path string) bool {
	for _, p := range []string{path, tenantScope.ReplaceAllString(path, "/api")} {
		for _, prefix := range SensitivePrefixes {
			if p == prefix || strings.HasPrefix(p, prefix+"/") {
				return true
			}
		}
	}
	return false
}

// maxCapture bounds how much of a response is buffered to read "success".
const maxCapture = 64 << 10

// Middleware logs an "audit_request" line before the handler for sensitive
// paths and every non-GET request, and an "audit_response" line after it for
// sensitive paths and every failed response. It must run inside the guard
// middleware so the principal is on the context.
func Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()
			log := slogx.FromContext(ctx)
			sensitive := IsSensitive(r.URL.Path)

			if sensitive || r.Method != http.MethodGet {
				log.Info("audit_request",
					"timestamp", start.UTC().Format(time.RFC3339Nano),
					"ip", httpx.ClientIP(r),
					"user_agent", r.UserAgent(),
					"method", r.Method,
					"path", r.URL.Path,
					"user_id", httpx.UserIDFromContext(ctx),
					"church_id", httpx.ChurchIDFromContext(ctx),
					"session_id", r.Header.Get("X-Session-ID"),
				)
			}

			rw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			if sensitive || rw.status >= http.StatusBadRequest {
				log.Info("audit_response",
					"method", r.Method,
					"path", r.URL.Path,
					"status", rw.status,
					"duration_ms", time.Since(start).Milliseconds(),
					"success", rw.success(),
					"user_id", httpx.UserIDFromContext(ctx),
				)
			}
		})
	}
}

type captureWriter struct {
	http.ResponseWriter

	status      int
	wroteHeader bool
	buf         bytes.Buffer
}

func (cw *captureWriter) WriteHeader(code int) {
	if !cw.wroteHeader {
		cw.status = code
		cw.wroteHeader = true
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	cw.wroteHeader = true
	if room := maxCapture - cw.buf.Len(); room > 0 {
		cw.buf.Write(b[:min(len(b), room)])
	}
	return cw.ResponseWriter.Write(b)
}

func (cw *captureWriter) Unwrap() http.ResponseWriter { return cw.ResponseWriter }

// success reads the "success" field of a JSON response, falling back to the
// status code when there is none.
func (cw *captureWriter) success() bool {
	var payload struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(cw.buf.Bytes(), &payload); err == nil && payload.Success != nil {
		return *payload.Success
	}
	return cw.status < http.StatusBadRequest
}
