package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ringsidehq/ringside/pkg/matches"
	"github.com/ringsidehq/ringside/pkg/observability"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Cache         CacheConfig
	Matching      MatchingConfig
	Sweeper       SweeperConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds relational store configuration.
type DatabaseConfig struct {
	URL           string
	MaxOpenConns  int
	MaxIdleConns  int
	ConnLifetime  time.Duration
	RunMigrations bool
}

// CacheConfig holds the authorization cache configuration. Backend selects
// the implementation: redis, memory, or none (caching disabled).
type CacheConfig struct {
	Backend    string
	RedisURL   string
	MemorySize int
	TTL        time.Duration
}

// MatchingConfig holds the match request rules.
type MatchingConfig struct {
	RequestTTL         time.Duration
	MaxWeightDeltaKg   float64
	MaxFightCountDelta int
}

// SweeperConfig holds the expiration sweep schedule.
type SweeperConfig struct {
	Schedule string
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("RINGSIDE_HOST", "0.0.0.0"),
			Port:            getEnv("RINGSIDE_PORT", "8080"),
			ReadTimeout:     getEnvDuration("RINGSIDE_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("RINGSIDE_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("RINGSIDE_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("RINGSIDE_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:           getEnv("RINGSIDE_POSTGRES_URL", ""),
			MaxOpenConns:  getEnvInt("RINGSIDE_POSTGRES_MAX_CONNS", 25),
			MaxIdleConns:  getEnvInt("RINGSIDE_POSTGRES_IDLE_CONNS", 5),
			ConnLifetime:  getEnvDuration("RINGSIDE_POSTGRES_CONN_LIFETIME", 30*time.Minute),
			RunMigrations: getEnvBool("RINGSIDE_RUN_MIGRATIONS", true),
		},
		Cache: CacheConfig{
			Backend:    strings.ToLower(getEnv("RINGSIDE_CACHE_BACKEND", "redis")),
			RedisURL:   getEnv("RINGSIDE_REDIS_URL", "redis://localhost:6379/0"),
			MemorySize: getEnvInt("RINGSIDE_MEMORY_CACHE_SIZE", 4096),
			TTL:        getEnvDuration("RINGSIDE_AUTHZ_CACHE_TTL", 5*time.Minute),
		},
		Matching: MatchingConfig{
			RequestTTL:         getEnvDuration("RINGSIDE_MATCH_REQUEST_TTL", matches.DefaultRequestTTL),
			MaxWeightDeltaKg:   getEnvFloat("RINGSIDE_MAX_WEIGHT_DELTA_KG", matches.DefaultCompatibilityRules.MaxWeightDeltaKg),
			MaxFightCountDelta: getEnvInt("RINGSIDE_MAX_FIGHT_COUNT_DELTA", matches.DefaultCompatibilityRules.MaxFightCountDelta),
		},
		Sweeper: SweeperConfig{
			Schedule: getEnv("RINGSIDE_SWEEP_SCHEDULE", "@every 5m"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       parseLogLevel(getEnv("RINGSIDE_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("RINGSIDE_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// CompatibilityRules converts the matching config into the rules the match
// service consumes.
func (c *Config) CompatibilityRules() matches.CompatibilityRules {
	return matches.CompatibilityRules{
		MaxWeightDeltaKg:   c.Matching.MaxWeightDeltaKg,
		MaxFightCountDelta: c.Matching.MaxFightCountDelta,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	switch c.Cache.Backend {
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("redis URL is required for the redis cache backend")
		}
	case "memory":
		if c.Cache.MemorySize <= 0 {
			return fmt.Errorf("memory cache size must be positive")
		}
	case "none":
	default:
		return fmt.Errorf("invalid cache backend: %s (must be redis, memory, or none)", c.Cache.Backend)
	}

	if c.Matching.RequestTTL <= 0 {
		return fmt.Errorf("match request TTL must be positive")
	}
	if c.Matching.MaxWeightDeltaKg < 0 {
		return fmt.Errorf("max weight delta must not be negative")
	}
	if c.Matching.MaxFightCountDelta < 0 {
		return fmt.Errorf("max fight-count delta must not be negative")
	}

	return nil
}

// parseLogLevel parses a log level string.
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
