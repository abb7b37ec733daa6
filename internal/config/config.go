package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const devJWTSecret = "dev-secret-change-in-production"

// Rate limiter backends.
const (
	LimiterMemory = "memory"
	LimiterRedis  = "redis"
)

// Duration is a time.Duration read from the environment. Besides Go duration
// syntax it accepts a whole number of days such as "30d".
type Duration time.Duration

// SetValue implements cleanenv.Setter.
func (d *Duration) SetValue(s string) error {
	v, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// ParseDuration parses Go durations plus an integer day suffix.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid day duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

type Config struct {
	Port string `env:"PORT" env-default:"5000" env-description:"HTTP listen port"`
	Env  string `env:"NODE_ENV,ENV" env-default:"development" env-description:"development or production"`

	DBDriver    string `env:"DB_DRIVER" env-default:"mysql" env-description:"mysql or sqlite"`
	DatabaseURL string `env:"DATABASE_URL" env-default:"root:password@tcp(127.0.0.1:3306)/booktrack?parseTime=true" env-description:"MySQL DSN or SQLite file path"`

	JWTSecret string   `env:"JWT_SECRET" env-default:"dev-secret-change-in-production" env-description:"HS256 signing secret"`
	JWTExpire Duration `env:"JWT_EXPIRE" env-default:"30d" env-description:"session token lifetime"`

	RateLimitWindow  time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"15m" env-description:"rate limit window"`
	RateLimitMax     int           `env:"RATE_LIMIT_MAX" env-default:"100" env-description:"requests per window per IP"`
	RateLimitBackend string        `env:"RATE_LIMIT_BACKEND" env-default:"memory" env-description:"memory or redis"`

	RedisAddr     string `env:"REDIS_ADDR" env-default:"127.0.0.1:6379" env-description:"Redis address for the redis limiter"`
	RedisPassword string `env:"REDIS_PASSWORD" env-description:"Redis password"`
	RedisDB       int    `env:"REDIS_DB" env-default:"0" env-description:"Redis database index"`

	TrustProxy bool `env:"TRUST_PROXY" env-default:"false" env-description:"take client IPs from X-Forwarded-For / X-Real-IP"`

	CORSOrigins []string `env:"CORS_ORIGINS" env-default:"*" env-separator:"," env-description:"allowed CORS origins"`
	LogLevel    string   `env:"LOG_LEVEL" env-default:"info" env-description:"debug, info, warn or error"`
}

// Load reads the configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	var errs []error

	if c.IsProduction() && c.JWTSecret == devJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production environment"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.JWTExpiry() <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRE must be positive"))
	}
	switch c.DBDriver {
	case "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	switch c.RateLimitBackend {
	case LimiterMemory, LimiterRedis:
	default:
		errs = append(errs, fmt.Errorf("unsupported RATE_LIMIT_BACKEND %q", c.RateLimitBackend))
	}
	if c.RateLimitMax <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MAX must be positive"))
	}
	if c.RateLimitWindow < time.Millisecond {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be at least 1ms"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the server runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// JWTExpiry returns the session token lifetime.
func (c Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpire)
}

// SlogLevel parses LOG_LEVEL.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}
