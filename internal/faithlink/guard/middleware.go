package guard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/faithlink360/gateway/pkg/httpx"
	"github.com/faithlink360/gateway/pkg/slogx"
)

// DefaultMaxBodyBytes caps request bodies read by the adapter.
const DefaultMaxBodyBytes int64 = 1 << 20

type Options struct {
	MaxBodyBytes int64

	// OnReject is called for every rejection before the response is written.
	OnReject func(r *http.Request, e *Error)

	Now func() time.Time
}

// Middleware runs g in front of the next handler. Rejections are written as
// JSON error bodies; an accepted request continues with everything the
// gates changed (body, query, path params, identity and tenant) applied.
func Middleware(g Gate, opts Options) httpx.Middleware {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	writeReject := func(w http.ResponseWriter, r *http.Request, e *Error) {
		if opts.OnReject != nil {
			opts.OnReject(r, e)
		}
		for k, vs := range e.Header {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		httpx.WriteError(w, e.Status, e.Code, e.Message, e.Extra)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			env, err := NewEnvelope(w, r, opts.MaxBodyBytes)
			if err != nil {
				if e, ok := AsError(err); ok {
					writeReject(w, r, e)
					return
				}
				log.Error("guard: read request", "err", err)
				writeReject(w, r, reject(http.StatusInternalServerError, CodeInternal, "Internal server error"))
				return
			}
			env.Received = opts.Now()

			out, err := g(ctx, env)
			if err != nil {
				if e, ok := AsError(err); ok {
					writeReject(w, r, e)
					return
				}
				if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
					// client went away while a gate was waiting
					log.Debug("guard: request cancelled", "err", err)
					return
				}
				log.Error("guard: gate failed", "err", err)
				writeReject(w, r, reject(http.StatusInternalServerError, CodeInternal, "Internal server error"))
				return
			}

			r2, err := apply(ctx, r, out)
			if err != nil {
				log.Error("guard: apply envelope", "err", err)
				writeReject(w, r, reject(http.StatusInternalServerError, CodeInternal, "Internal server error"))
				return
			}
			next.ServeHTTP(w, r2)
		})
	}
}

var patternParam = regexp.MustCompile(`\{([^}.]+)(\.\.\.)?\}`)

// NewEnvelope captures r for the gates. The body is read in full, bounded by
// maxBody, and decoded when it is JSON. The request body is left readable.
func NewEnvelope(w http.ResponseWriter, r *http.Request, maxBody int64) (Envelope, error) {
	env := Envelope{
		Method:        r.Method,
		Path:          r.URL.Path,
		RawPath:       rawPath(r),
		RemoteIP:      httpx.ClientIP(r),
		UserAgent:     r.UserAgent(),
		SessionID:     r.Header.Get("X-Session-ID"),
		ContentType:   r.Header.Get("Content-Type"),
		Authorization: r.Header.Get("Authorization"),
		Query:         r.URL.Query(),
	}

	if r.Pattern != "" {
		for _, m := range patternParam.FindAllStringSubmatch(r.Pattern, -1) {
			name := m[1]
			if name == "$" {
				continue
			}
			if env.PathParams == nil {
				env.PathParams = map[string]string{}
			}
			env.PathParams[name] = r.PathValue(name)
		}
	}

	if r.Body == nil || r.Body == http.NoBody {
		return env, nil
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	_ = r.Body.Close()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return env, reject(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Request body too large")
		}
		return env, reject(http.StatusBadRequest, CodeInvalidJSON, "Unable to read request body")
	}
	env.RawBody = raw
	r.Body = io.NopCloser(bytes.NewReader(raw))

	if len(bytes.TrimSpace(raw)) == 0 || !isJSON(env.ContentType) {
		return env, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var body any
	if err := dec.Decode(&body); err != nil {
		return env, reject(http.StatusBadRequest, CodeInvalidJSON, "Invalid JSON body")
	}
	if _, err := dec.Token(); err != io.EOF {
		return env, reject(http.StatusBadRequest, CodeInvalidJSON, "Invalid JSON body")
	}
	env.Body = body
	return env, nil
}

// apply returns a clone of r carrying the envelope's changes.
func apply(ctx context.Context, r *http.Request, env Envelope) (*http.Request, error) {
	if id, ok := env.Identity(); ok {
		ctx = ContextWithIdentity(ctx, id)
		ctx = httpx.WithPrincipal(ctx, id.Subject, id.Role.String(), env.ChurchID())
	}
	r2 := r.Clone(ctx)

	if env.bodyChanged {
		b, err := json.Marshal(env.Body)
		if err != nil {
			return nil, err
		}
		r2.Body = io.NopCloser(bytes.NewReader(b))
		r2.ContentLength = int64(len(b))
		r2.Header.Set("Content-Length", strconv.Itoa(len(b)))
	} else if env.RawBody != nil {
		r2.Body = io.NopCloser(bytes.NewReader(env.RawBody))
	}

	if env.queryChanged {
		r2.URL.RawQuery = env.Query.Encode()
	}
	if env.paramsChanged {
		for k, v := range env.PathParams {
			r2.SetPathValue(k, v)
		}
	}
	return r2, nil
}

func rawPath(r *http.Request) string {
	if r.RequestURI == "" {
		return r.URL.EscapedPath()
	}
	p, _, _ := strings.Cut(r.RequestURI, "?")
	return p
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
