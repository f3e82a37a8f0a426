package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sweep targets for the recurring scheduler
const (
	SweepTargetObligations = "obligations"
	SweepTargetInstances   = "instances"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port        string
	Environment string
	LogLevel    string

	// Database
	DatabaseURL string
	LockTimeout time.Duration

	// JWT
	JWTSecret string

	// Background Workers
	WorkerCount int

	// CORS
	AllowedOrigins []string

	// Cache
	RedisURL string
	CacheTTL time.Duration

	// Recurring scheduler
	SchedulerInterval      time.Duration
	SchedulerSweepTarget   string
	RecurringHorizonMonths int

	// Balance check, disabled when zero
	BalanceCheckInterval time.Duration

	// Sentry
	SentryDSN string
}

// Load reads configuration from the environment, an optional config.yaml and defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOCK_TIMEOUT", "5s")
	v.SetDefault("WORKER_COUNT", 5)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("CACHE_TTL", "15m")
	v.SetDefault("SCHEDULER_INTERVAL", "24h")
	v.SetDefault("SCHEDULER_SWEEP_TARGET", SweepTargetObligations)
	v.SetDefault("RECURRING_HORIZON_MONTHS", 12)
	v.SetDefault("BALANCE_CHECK_INTERVAL", "24h")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:                   v.GetString("PORT"),
		Environment:            v.GetString("ENVIRONMENT"),
		LogLevel:               v.GetString("LOG_LEVEL"),
		DatabaseURL:            v.GetString("DATABASE_URL"),
		LockTimeout:            v.GetDuration("LOCK_TIMEOUT"),
		JWTSecret:              v.GetString("JWT_SECRET"),
		WorkerCount:            v.GetInt("WORKER_COUNT"),
		AllowedOrigins:         splitList(v.GetString("ALLOWED_ORIGINS")),
		RedisURL:               v.GetString("REDIS_URL"),
		CacheTTL:               v.GetDuration("CACHE_TTL"),
		SchedulerInterval:      v.GetDuration("SCHEDULER_INTERVAL"),
		SchedulerSweepTarget:   v.GetString("SCHEDULER_SWEEP_TARGET"),
		RecurringHorizonMonths: v.GetInt("RECURRING_HORIZON_MONTHS"),
		BalanceCheckInterval:   v.GetDuration("BALANCE_CHECK_INTERVAL"),
		SentryDSN:              v.GetString("SENTRY_DSN"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Set default JWT secret for development
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-in-production"
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" && c.Environment == "production" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.SchedulerSweepTarget != SweepTargetObligations && c.SchedulerSweepTarget != SweepTargetInstances {
		return fmt.Errorf("SCHEDULER_SWEEP_TARGET must be %q or %q", SweepTargetObligations, SweepTargetInstances)
	}
	if c.RecurringHorizonMonths <= 0 {
		return fmt.Errorf("RECURRING_HORIZON_MONTHS must be positive")
	}
	if c.BalanceCheckInterval < 0 {
		return fmt.Errorf("BALANCE_CHECK_INTERVAL must not be negative")
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = 1
	}
	return nil
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
