package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/faithlink360/gateway/internal/faithlink/audit"
	"github.com/faithlink360/gateway/internal/faithlink/guard"
	httpapi "github.com/faithlink360/gateway/internal/faithlink/http"
	"github.com/faithlink360/gateway/internal/faithlink/obs"
	"github.com/faithlink360/gateway/internal/faithlink/service"
	"github.com/faithlink360/gateway/internal/faithlink/store/drivers/sqlite"
	"github.com/faithlink360/gateway/internal/faithlink/token"
	"github.com/faithlink360/gateway/pkg/cryptox"
	"github.com/faithlink360/gateway/pkg/httpx"
	"github.com/faithlink360/gateway/pkg/limitx"
	"github.com/faithlink360/gateway/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application wires the gateway and owns every long lived resource.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       *sqlite.Store
	codec    *token.Codec
	hasher   *cryptox.Hasher
	redis    *redis.Client // nil when counters are local
	limits   limitx.Store
	registry *prometheus.Registry
	metrics  *obs.Metrics

	// Services
	authService         *service.AuthService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "faithlink-gateway",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New validates cfg and initialises every dependency. Resources opened
// before a failure are released.
func New(cfg Config) (*Application, error) {
	app := &Application{cfg: cfg, logger: NewLogger(cfg)}

	if err := app.initSecret(); err != nil {
		return nil, err
	}
	if err := app.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewHasher(pepper)

	if app.codec, err = NewCodec(app.cfg); err != nil {
		return nil, err
	}

	if app.db, err = OpenStore(app.cfg); err != nil {
		return nil, err
	}
	app.logger.Info("database migrations applied successfully")

	app.initLimits()
	app.initMetrics()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler exposes the router, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("faithlink gateway starting", "port", app.cfg.Port, "version", BuildVersion, "env", app.cfg.Env)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			app.closeResources()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests then releases the store and the
// counter backend.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down faithlink gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeResources(); err != nil {
		return err
	}

	app.logger.Info("faithlink gateway stopped")
	return nil
}

func (app *Application) closeResources() error {
	var errs []error
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
			errs = append(errs, err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// initSecret gives dev a throwaway signing secret so the service starts with
// no configuration. Tokens do not survive a restart.
func (app *Application) initSecret() error {
	if app.cfg.JWTSecret != "" || app.cfg.IsProduction() {
		return nil
	}
	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	app.cfg.JWTSecret = secret
	app.logger.Warn("JWT_SECRET not set, using an ephemeral secret")
	return nil
}

// OpenStore opens the SQLite database named by cfg and applies migrations.
func OpenStore(cfg Config) (*sqlite.Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return db, nil
}

// NewCodec builds the token codec described by cfg.
func NewCodec(cfg Config) (*token.Codec, error) {
	codec, err := token.NewCodec(token.Config{
		Secret:   []byte(cfg.JWTSecret),
		TTL:      cfg.JWTExpiresIn,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	return codec, nil
}

// Policy maps cfg onto the router's gate settings.
func (c Config) Policy() httpapi.Policy {
	p := httpapi.DefaultPolicy()

	p.APILimit.Max = c.RateLimitAPIMax
	p.APILimit.Window = c.RateLimitAPIWindow
	p.AuthLimit.Max = c.RateLimitAuthMax
	p.AuthLimit.Window = c.RateLimitAuthWindow

	p.SlowDown = guard.SlowDownConfig{
		Window:     c.RateLimitAPIWindow,
		DelayAfter: c.SlowDownDelayAfter,
		Delay:      c.SlowDownDelay,
		MaxDelay:   c.SlowDownMaxDelay,
	}
	p.CORSOrigins = c.CORSOrigins
	// Validate has already rejected malformed entries.
	p.TrustedProxies, _ = httpx.ParseTrustedProxies(c.TrustedProxies)
	return p
}

func (app *Application) initLimits() {
	if app.cfg.RedisAddr == "" {
		app.limits = limitx.NewMemory()
		app.logger.Info("rate limit counters are process local")
		return
	}

	app.redis = redis.NewClient(&redis.Options{Addr: app.cfg.RedisAddr})
	app.limits = limitx.NewRedis(app.redis, app.logger)
	app.logger.Info("rate limit counters use redis", "addr", app.cfg.RedisAddr)
}

func (app *Application) initMetrics() {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = obs.New(app.registry)
	app.metrics.SetBuildInfo(BuildVersion)
}

func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:  app.db,
		Codec:  app.codec,
		Hasher: app.hasher,
	}
	app.userService = &service.UserService{
		Store:  app.db,
		Hasher: app.hasher,
	}
	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	events := audit.Multi{
		audit.NewLogSink(nil, app.cfg.SecurityLogRate),
		app.metrics,
	}

	router := httpapi.NewRouter(
		app.codec,
		app.db,
		app.limits,
		events,
		app.metrics,
		app.registry,
		app.cfg.Policy(),
		BuildVersion,
		app.logger,
	)
	router.AuthService = app.authService
	router.UserService = app.userService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
