// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// --- HTTP ---
	Port            string        `envconfig:"PORT" default:"8083"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// --- Database ---
	DatabaseDSN    string `envconfig:"DB_DSN"`
	DBMaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	DBMaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`

	// --- Auth ---
	// AUTH0_DOMAIN selects RS256 verification against the tenant JWKS.
	// JWT_SECRET is the HS256 fallback for local runs.
	Auth0Domain   string `envconfig:"AUTH0_DOMAIN"`
	Auth0Audience string `envconfig:"AUTH0_AUDIENCE"`
	JWTSecret     string `envconfig:"JWT_SECRET"`

	// --- RabbitMQ ---
	AMQPURL        string `envconfig:"AMQP_URL"`
	EventsExchange string `envconfig:"EVENTS_EXCHANGE" default:"app.events"`
	LogsExchange   string `envconfig:"LOGS_EXCHANGE" default:"logs.events"`

	// --- Redis ---
	RedisURL      string        `envconfig:"REDIS_URL"`
	BadgeCacheTTL time.Duration `envconfig:"BADGE_CACHE_TTL" default:"5m"`

	// --- Application ---
	ServiceName string `envconfig:"SERVICE_NAME" default:"profile-service"`
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

func (c *Config) Validate() error {
	if c.DatabaseDSN == "" {
		return errors.New("DB_DSN is required")
	}
	if c.Auth0Domain == "" && c.JWTSecret == "" {
		return errors.New("one of AUTH0_DOMAIN or JWT_SECRET is required")
	}
	if c.DBMaxOpenConns <= 0 || c.DBMaxIdleConns < 0 || c.DBMaxIdleConns > c.DBMaxOpenConns {
		return errors.New("invalid DB_MAX_OPEN_CONNS/DB_MAX_IDLE_CONNS")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// Load reads the environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
