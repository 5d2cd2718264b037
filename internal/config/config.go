package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SessionCookie   = "cookie"
	SessionRedis    = "redis"
	SessionPostgres = "postgres"
)

type SessionConfig struct {
	Backend     string
	Secret      string
	IdleTTL     time.Duration
	SecureOnly  bool
	RedisURL    string
	DatabaseURL string
}

type Config struct {
	Port              string
	APIBaseURL        string
	APITimeout        time.Duration
	TelemetryInterval time.Duration
	AllowedOrigins    []string
	Session           SessionConfig
}

func loadDotenv() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Warning: .env file not found, using environment variables from system")
	} else {
		log.Println("✅ .env file loaded successfully")
	}
}

// StubConfig is what the development backend needs.
type StubConfig struct {
	Port      string
	JWTSecret string
}

func LoadStub() StubConfig {
	loadDotenv()
	return StubConfig{
		Port:      getEnv("STUB_PORT", "8081"),
		JWTSecret: getEnv("APP_JWT_SECRET", "neurofleet-dev-secret"),
	}
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	loadDotenv()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		APIBaseURL:        strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8081/api"), "/"),
		APITimeout:        10 * time.Second,
		TelemetryInterval: 5 * time.Second,
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", "*")),
		Session: SessionConfig{
			Backend:     strings.ToLower(getEnv("SESSION_BACKEND", SessionCookie)),
			Secret:      os.Getenv("SESSION_SECRET"),
			IdleTTL:     7 * 24 * time.Hour,
			SecureOnly:  getEnv("SESSION_SECURE", "false") == "true",
			RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
	}

	var err error
	if cfg.APITimeout, err = getDuration("API_TIMEOUT", cfg.APITimeout); err != nil {
		return nil, err
	}
	if cfg.TelemetryInterval, err = getDuration("TELEMETRY_INTERVAL", cfg.TelemetryInterval); err != nil {
		return nil, err
	}
	if cfg.Session.IdleTTL, err = getDuration("SESSION_IDLE_TTL", cfg.Session.IdleTTL); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the console cannot start without.
func (c *Config) Validate() error {
	switch c.Session.Backend {
	case SessionCookie:
		if len(c.Session.Secret) < 32 {
			return fmt.Errorf("SESSION_SECRET must be at least 32 bytes for the cookie backend")
		}
	case SessionRedis:
		if c.Session.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis session backend")
		}
	case SessionPostgres:
		if c.Session.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres session backend")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q (want cookie, redis or postgres)", c.Session.Backend)
	}
	if c.TelemetryInterval <= 0 {
		return fmt.Errorf("TELEMETRY_INTERVAL must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
