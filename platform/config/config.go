// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq scheduler and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// RedisConfig provides settings for plain redis clients (caches).
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// DistributionConfig provides settings for the lead distribution service.
type DistributionConfig interface {
	GetDefaultTargetQuota() int
	GetMaxRecyclingAttempts() int
}

// SweepConfig provides settings for the recycling monitor.
type SweepConfig interface {
	GetSweepInterval() time.Duration
	GetInactivityThreshold() time.Duration
	GetMaxRecyclingAttempts() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	DatabaseURL          string
	RedisURL             string
	RedisTLSInsecure     bool
	AsynqQueueName       string
	AsynqConcurrency     int
	CORSAllowAll         bool
	CORSOrigins          []string
	CORSAllowCreds       bool
	DefaultTargetQuota   int
	MaxRecyclingAttempts int
	InactivityThreshold  time.Duration
	SweepInterval        time.Duration
	RuralCacheTTL        time.Duration
}

// Load reads configuration from environment variables, loading a .env file
// first when present. Missing required values produce an error; optional
// values fall back to defaults.
func Load() (*Config, error) {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             os.Getenv("REDIS_URL"),
		RedisTLSInsecure:     getBoolEnv("REDIS_TLS_INSECURE", false),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:     getIntEnv("ASYNQ_CONCURRENCY", 10),
		CORSAllowAll:         getBoolEnv("CORS_ALLOW_ALL", true),
		CORSOrigins:          getListEnv("CORS_ORIGINS"),
		CORSAllowCreds:       getBoolEnv("CORS_ALLOW_CREDENTIALS", false),
		DefaultTargetQuota:   getIntEnv("DEFAULT_TARGET_QUOTA", 20),
		MaxRecyclingAttempts: getIntEnv("MAX_RECYCLING_ATTEMPTS", 3),
		InactivityThreshold:  getDurationEnv("INACTIVITY_THRESHOLD", 24*time.Hour),
		SweepInterval:        getDurationEnv("SWEEP_INTERVAL", time.Hour),
		RuralCacheTTL:        getDurationEnv("RURAL_CACHE_TTL", 24*time.Hour),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.DefaultTargetQuota < 1 {
		return nil, fmt.Errorf("DEFAULT_TARGET_QUOTA must be positive")
	}
	if cfg.MaxRecyclingAttempts < 1 {
		return nil, fmt.Errorf("MAX_RECYCLING_ATTEMPTS must be positive")
	}

	return cfg, nil
}

// =============================================================================
// Interface implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

func (c *Config) GetHTTPAddr() string       { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool     { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string  { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool   { return c.CORSAllowCreds }
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

func (c *Config) GetDefaultTargetQuota() int   { return c.DefaultTargetQuota }
func (c *Config) GetMaxRecyclingAttempts() int { return c.MaxRecyclingAttempts }

func (c *Config) GetSweepInterval() time.Duration       { return c.SweepInterval }
func (c *Config) GetInactivityThreshold() time.Duration { return c.InactivityThreshold }
func (c *Config) GetRuralCacheTTL() time.Duration       { return c.RuralCacheTTL }

// =============================================================================
// Env helpers
// =============================================================================

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getBoolEnv(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getListEnv(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
