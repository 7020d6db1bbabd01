package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/faithlink360/gateway/internal/faithlink/audit"
	"github.com/faithlink360/gateway/internal/faithlink/domain"
	"github.com/faithlink360/gateway/internal/faithlink/guard"
	"github.com/faithlink360/gateway/internal/faithlink/obs"
	"github.com/faithlink360/gateway/internal/faithlink/service"
	"github.com/faithlink360/gateway/internal/faithlink/store"
	"github.com/faithlink360/gateway/internal/faithlink/token"
	"github.com/faithlink360/gateway/pkg/httpx"
	"github.com/faithlink360/gateway/pkg/limitx"
	"github.com/faithlink360/gateway/pkg/slogx"
)

// DirectoryRoles may read the member directory of their church.
var DirectoryRoles = []domain.Role{
	domain.RoleAdmin,
	domain.RolePastor,
	domain.RoleCareTeam,
	domain.RoleGroupLeader,
}

// Policy is the tunable part of the gate pipelines.
type Policy struct {
	APILimit       guard.Limit
	AuthLimit      guard.Limit
	SlowDown       guard.SlowDownConfig
	CORSOrigins    []string
	TrustedProxies httpx.TrustedProxies
	MaxBodyBytes   int64
}

func DefaultPolicy() Policy {
	return Policy{
		APILimit:     guard.APILimit,
		AuthLimit:    guard.AuthLimit,
		SlowDown:     guard.DefaultSlowDown,
		MaxBodyBytes: guard.DefaultMaxBodyBytes,
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	codec        *token.Codec
	limits       limitx.Store
	events       domain.EventSink
	metrics      *obs.Metrics
	gatherer     prometheus.Gatherer
	policy       Policy
	sanitizer    *guard.Sanitizer
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store       store.Store
	AuthService *service.AuthService
	UserService *service.UserService
}

func NewRouter(
	codec *token.Codec,
	st store.Store,
	limits limitx.Store,
	events domain.EventSink,
	metrics *obs.Metrics,
	gatherer prometheus.Gatherer,
	policy Policy,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	if events == nil {
		events = domain.DiscardEvents
	}
	r := &Router{
		Mux:          http.NewServeMux(),
		codec:        codec,
		limits:       limits,
		events:       events,
		metrics:      metrics,
		gatherer:     gatherer,
		policy:       policy,
		sanitizer:    guard.NewSanitizer(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// The client address is resolved first; limiters and logs key on it.
	// Detection runs before the mux so it sees the path before cleaning.
	r.middlewares = []httpx.Middleware{
		policy.TrustedProxies.Middleware,
		slogx.HTTPMiddleware(r.logger),
		httpx.SecurityHeaders,
		httpx.CORS(policy.CORSOrigins),
		r.guard(audit.Detect(audit.DefaultRules, r.events)),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerMembers()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) handle(pattern string, h http.Handler) {
	if r.metrics != nil {
		h = r.metrics.Instrument(pattern, h)
	}
	r.Mux.Handle(pattern, h)
}

func (r *Router) guard(g guard.Gate) httpx.Middleware {
	return guard.Middleware(g, guard.Options{
		MaxBodyBytes: r.policy.MaxBodyBytes,
		OnReject: func(req *http.Request, e *guard.Error) {
			if r.metrics != nil {
				r.metrics.RecordRejection(e.Code)
			}
			slogx.FromContext(req.Context()).Debug("request rejected", "code", e.Code, "status", e.Status)
		},
	})
}

func (r *Router) revocations() guard.RevocationChecker {
	if r.AuthService == nil {
		return nil
	}
	return r.AuthService
}

// protect wraps h in the full pipeline:
// rate limit, slow down, sanitize, authenticate, role, tenant, audit.
// With no roles any authenticated member passes the role stage.
func (r *Router) protect(h http.Handler, roles ...domain.Role) http.Handler {
	var roleGate guard.Gate
	if len(roles) > 0 {
		roleGate = guard.RequireRole(roles...)
	}

	pipeline := guard.Pipeline(
		guard.RateLimit(r.limits, r.policy.APILimit, r.events),
		guard.SlowDown(r.limits, r.policy.SlowDown),
		guard.Sanitize(r.sanitizer),
		guard.Authenticate(r.codec, r.revocations(), r.events),
		roleGate,
		guard.IsolateTenant(r.events),
	)
	return httpx.Chain(h, r.guard(pipeline), audit.Middleware())
}

func (r *Router) registerAuth() {
	login := &LoginHandler{AuthService: r.AuthService, Events: r.events}

	// Login gets the API limit plus the stricter brute force limit.
	r.handle("POST /api/auth/login",
		httpx.Chain(login,
			r.guard(guard.Pipeline(
				guard.RateLimit(r.limits, r.policy.APILimit, r.events),
				guard.RateLimit(r.limits, r.policy.AuthLimit, r.events),
				guard.SlowDown(r.limits, r.policy.SlowDown),
				guard.Sanitize(r.sanitizer),
			)),
			audit.Middleware(),
		),
	)

	r.handle("POST /api/auth/logout", r.protect(&LogoutHandler{AuthService: r.AuthService}))
	r.handle("GET /api/auth/me", r.protect(&MeHandler{UserService: r.UserService}))
}

func (r *Router) registerMembers() {
	h := &MembersHandler{UserService: r.UserService}

	r.handle("GET /api/churches/{churchId}/members", r.protect(h, DirectoryRoles...))
	r.handle("GET /api/members", r.protect(h, DirectoryRoles...))
}

func (r *Router) registerSystem() {
	r.handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.limits))
	if r.gatherer != nil {
		r.Mux.Handle("GET /metrics", obs.Handler(r.gatherer))
	}
}
