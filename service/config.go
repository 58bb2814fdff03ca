package service

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StrategyCookie  = "cookie"
	StrategyBackend = "backend"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"8000"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8000"`

	Backend struct {
		URL       string        `env:"BACKEND_URL" envDefault:"http://localhost:8080"`
		APIPrefix string        `env:"BACKEND_API_PREFIX" envDefault:"/api"`
		CSRFPath  string        `env:"BACKEND_CSRF_PATH" envDefault:"/sanctum/csrf-cookie"`
		Timeout   time.Duration `env:"BACKEND_TIMEOUT" envDefault:"0s"`
	}

	Session struct {
		Secret      string   `env:"SESSION_SECRET" envDefault:"development-secret-change-me!!!!"`
		CookieNames []string `env:"SESSION_COOKIE_NAMES" envSeparator:"," envDefault:"laravel_session,course_admin_session"`
		MaxAge      time.Duration `env:"SESSION_MAX_AGE" envDefault:"168h"`
	}

	Guard struct {
		Strategy  string   `env:"GUARD_STRATEGY" envDefault:"cookie"`
		Protected []string `env:"GUARD_PROTECTED" envSeparator:"," envDefault:"/dashboard"`
		Public    []string `env:"GUARD_PUBLIC" envSeparator:"," envDefault:"/,/login,/public/,/health"`
		LoginPath string   `env:"LOGIN_PATH" envDefault:"/"`
	}

	Redis struct {
		URL string `env:"REDIS_URL"`
	}
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	switch c.Guard.Strategy {
	case StrategyCookie, StrategyBackend:
	default:
		return fmt.Errorf("GUARD_STRATEGY must be %q or %q, got %q", StrategyCookie, StrategyBackend, c.Guard.Strategy)
	}

	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BACKEND_URL must be an absolute URL, got %q", c.Backend.URL)
	}

	if c.Backend.Timeout < 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must not be negative")
	}

	if c.IsProduction() && len(c.Session.Secret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters in production")
	}

	if c.Session.MaxAge < 0 {
		return fmt.Errorf("SESSION_MAX_AGE must not be negative")
	}

	if len(c.Guard.Protected) == 0 {
		return fmt.Errorf("GUARD_PROTECTED must list at least one path prefix")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
