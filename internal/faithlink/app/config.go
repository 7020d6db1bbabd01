package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/faithlink360/gateway/internal/faithlink/token"
	"github.com/faithlink360/gateway/pkg/httpx"
)

type Config struct {
	JWTSecret    string        // Required outside dev: HS256 signing secret
	JWTExpiresIn time.Duration // Token lifetime (default: 24h)
	JWTIssuer    string        // iss claim (default: faithlink360)
	JWTAudience  string        // aud claim (default: church-members)

	CORSOrigins    []string // Allowed browser origins (default: http://localhost:3000)
	TrustedProxies []string // CIDRs or addresses whose X-Forwarded-For is honoured (default: none)

	RateLimitAPIMax     int64
	RateLimitAPIWindow  time.Duration
	RateLimitAuthMax    int64
	RateLimitAuthWindow time.Duration
	SlowDownDelayAfter  int64
	SlowDownDelay       time.Duration
	SlowDownMaxDelay    time.Duration

	RedisAddr       string  // Optional: shared counter store; local counters when empty
	DatabaseFile    string  // Path to SQLite database file (default: ./faithlink.db)
	PepperFile      string  // Path to password pepper file (default: ./pepper)
	SecurityLogRate float64 // Max security event log lines per second, 0 = unlimited

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Revocation cleanup interval (default: 1h)
}

// source resolves a key from the environment first, then from the optional
// config file.
type source struct {
	file map[string]string
}

func (s source) get(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s.file[key]
}

// LoadConfig reads configuration from the environment. When path is set the
// YAML file there supplies values for keys the environment leaves empty; the
// file uses the same key names and may reference ${VAR} placeholders.
func LoadConfig(path string) (Config, error) {
	src := source{}
	if path != "" {
		file, err := readConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		src.file = file
	}

	cfg := Config{
		JWTSecret:    src.get("JWT_SECRET"),
		JWTExpiresIn: src.durationOrDefault("JWT_EXPIRES_IN", 24*time.Hour),
		JWTIssuer:    src.getOrDefault("JWT_ISSUER", token.DefaultIssuer),
		JWTAudience:  src.getOrDefault("JWT_AUDIENCE", token.DefaultAudience),

		CORSOrigins:    splitList(src.getOrDefault("CORS_ORIGINS", "http://localhost:3000")),
		TrustedProxies: splitList(src.get("TRUSTED_PROXIES")),

		RateLimitAPIMax:     int64(src.intOrDefault("RATELIMIT_API_MAX", 100)),
		RateLimitAPIWindow:  time.Duration(src.intOrDefault("RATELIMIT_API_WINDOW_SEC", 900)) * time.Second,
		RateLimitAuthMax:    int64(src.intOrDefault("RATELIMIT_AUTH_MAX", 10)),
		RateLimitAuthWindow: time.Duration(src.intOrDefault("RATELIMIT_AUTH_WINDOW_SEC", 900)) * time.Second,
		SlowDownDelayAfter:  int64(src.intOrDefault("SLOWDOWN_DELAY_AFTER", 50)),
		SlowDownDelay:       time.Duration(src.intOrDefault("SLOWDOWN_DELAY_MS", 500)) * time.Millisecond,
		SlowDownMaxDelay:    time.Duration(src.intOrDefault("SLOWDOWN_MAX_DELAY_MS", 20000)) * time.Millisecond,

		RedisAddr:       src.get("REDIS_ADDR"),
		DatabaseFile:    src.getOrDefault("DATABASE_FILE", "faithlink.db"),
		PepperFile:      src.getOrDefault("PEPPER_FILE", "pepper"),
		SecurityLogRate: src.floatOrDefault("SECURITY_LOG_RATE", 0),

		Env:                  src.getOrDefault("ENV", "dev"),
		LogLevel:             src.getOrDefault("LOG_LEVEL", "info"),
		LogFormat:            src.getOrDefault("LOG_FORMAT", "json"),
		Port:                 src.intOrDefault("PORT", 8080),
		ShutdownGracePeriod:  src.durationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: src.durationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg, nil
}

// IsProduction covers every environment that faces real members.
func (c Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production", "staging":
		return true
	}
	return false
}

// Validate rejects settings the service cannot run with. Outside dev it also
// requires a strong secret and explicit https CORS origins.
func (c Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.JWTExpiresIn <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}
	if c.RateLimitAPIMax <= 0 || c.RateLimitAuthMax <= 0 {
		errs = append(errs, errors.New("rate limit maximums must be positive"))
	}
	if c.RateLimitAPIWindow <= 0 || c.RateLimitAuthWindow <= 0 {
		errs = append(errs, errors.New("rate limit windows must be positive"))
	}
	if _, err := httpx.ParseTrustedProxies(c.TrustedProxies); err != nil {
		errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %w", err))
	}

	if c.IsProduction() {
		if len(c.JWTSecret) < 32 {
			errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes"))
		}
		if len(c.CORSOrigins) == 0 {
			errs = append(errs, errors.New("CORS_ORIGINS must list the allowed origins"))
		}
		for _, o := range c.CORSOrigins {
			if err := checkOrigin(o); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}

func checkOrigin(origin string) error {
	if strings.Contains(origin, "*") {
		return fmt.Errorf("CORS origin %q: wildcards are not allowed", origin)
	}
	u, err := url.Parse(origin)
	if err != nil || u.Scheme != "https" || u.Host == "" || (u.Path != "" && u.Path != "/") {
		return fmt.Errorf("CORS origin %q: must be an https origin", origin)
	}
	return nil
}

func readConfigFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &doc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	out := make(map[string]string, len(doc))
	for k, v := range doc {
		switch t := v.(type) {
		case nil:
		case []any:
			parts := make([]string, len(t))
			for i, p := range t {
				parts[i] = fmt.Sprint(p)
			}
			out[strings.ToUpper(k)] = strings.Join(parts, ",")
		default:
			out[strings.ToUpper(k)] = fmt.Sprint(t)
		}
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s source) getOrDefault(key, defaultValue string) string {
	if value := s.get(key); value != "" {
		return value
	}
	return defaultValue
}

func (s source) intOrDefault(key string, defaultValue int) int {
	value := s.get(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func (s source) floatOrDefault(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(s.get(key), 64); err == nil {
		return f
	}
	return defaultValue
}

// durationOrDefault accepts Go durations ("90s", "1h") and a day suffix
// ("7d"). A bare integer is read as seconds.
func (s source) durationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(s.get(key))
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	if days, ok := strings.CutSuffix(value, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil {
			return time.Duration(n) * 24 * time.Hour
		}
	}

	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultValue
}
