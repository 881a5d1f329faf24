package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	// Remote hospital services. Users and patients share one gateway in
	// the reference deployment; doctors, availability and specializations
	// another; notifications a third.
	UserServiceURL         string `env:"USER_SERVICE_URL" envDefault:"http://localhost:8083"`
	DoctorServiceURL       string `env:"DOCTOR_SERVICE_URL" envDefault:"http://localhost:8089"`
	NotificationServiceURL string `env:"NOTIFICATION_SERVICE_URL" envDefault:"http://localhost:8087"`

	SessionSecret           string `env:"SESSION_SECRET"`
	SessionCheckSeconds     int    `env:"SESSION_CHECK_SECONDS" envDefault:"60"`
	BookingWindowDays       int    `env:"BOOKING_WINDOW_DAYS" envDefault:"60"`
	UpstreamTimeoutSeconds  int    `env:"UPSTREAM_TIMEOUT_SECONDS" envDefault:"10"`
	LoginRateLimitPerMinute int    `env:"LOGIN_RATE_LIMIT_PER_MINUTE" envDefault:"10"`
	LogLevel                string `env:"LOG_LEVEL" envDefault:"info"`
	StaticDir               string `env:"STATIC_DIR" envDefault:"static/portal"`
}

func (c *Config) SessionCheckInterval() time.Duration {
	return time.Duration(c.SessionCheckSeconds) * time.Second
}

func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.BookingWindowDays <= 0 {
		return fmt.Errorf("BOOKING_WINDOW_DAYS must be positive")
	}

	if isProduction {
		if err := validateSecret("SESSION_SECRET", c.SessionSecret); err != nil {
			return err
		}
		if c.DatabaseURL == "" {
			log.Warn().Msg("DATABASE_URL is empty in production: sessions will not survive restarts")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		for _, u := range []string{c.UserServiceURL, c.DoctorServiceURL, c.NotificationServiceURL} {
			if strings.HasPrefix(u, "http://") {
				log.Warn().Str("url", u).Msg("hospital service URL is not TLS in production")
			}
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
