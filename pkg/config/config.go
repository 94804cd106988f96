package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/simplycrm/simplycrm/pkg/kv"
	"github.com/simplycrm/simplycrm/pkg/observability"
	"github.com/simplycrm/simplycrm/pkg/security"
	"github.com/simplycrm/simplycrm/pkg/shield"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Shared key-value store (redis)
	Redis kv.RedisConfig

	// Organization/user directory (postgres)
	Postgres PostgresConfig

	// Session cookie settings
	Session SessionConfig

	// Login brute-force protection
	Login security.Config

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// PostgresConfig holds directory database settings
type PostgresConfig struct {
	URL      string
	MaxConns int
}

// SessionConfig holds session cookie and TTL settings
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
}

// ObservabilityConfig holds logging and metrics settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Redis:         loadRedisConfig(),
		Postgres:      loadPostgresConfig(),
		Session:       loadSessionConfig(),
		Login:         LoginSecurityFromEnv(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("SIMPLYCRM_HOST", "0.0.0.0"),
		Port:            getEnv("SIMPLYCRM_PORT", "8080"),
		ReadTimeout:     getEnvDuration("SIMPLYCRM_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("SIMPLYCRM_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("SIMPLYCRM_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("SIMPLYCRM_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func loadRedisConfig() kv.RedisConfig {
	return kv.RedisConfig{
		URL:        getEnv("SIMPLYCRM_REDIS_URL", "redis://localhost:6379/0"),
		Password:   getEnv("SIMPLYCRM_REDIS_PASSWORD", ""),
		DB:         getEnvInt("SIMPLYCRM_REDIS_DB", -1),
		MaxRetries: getEnvInt("SIMPLYCRM_REDIS_MAX_RETRIES", 3),
		PoolSize:   getEnvInt("SIMPLYCRM_REDIS_POOL_SIZE", 10),
	}
}

func loadPostgresConfig() PostgresConfig {
	return PostgresConfig{
		URL:      getEnv("SIMPLYCRM_POSTGRES_URL", ""),
		MaxConns: getEnvInt("SIMPLYCRM_POSTGRES_MAX_CONNS", 10),
	}
}

func loadSessionConfig() SessionConfig {
	return SessionConfig{
		CookieName: getEnv("SIMPLYCRM_SESSION_COOKIE", "simplycrm_session"),
		TTL:        getEnvSeconds("SIMPLYCRM_SESSION_TTL_SECONDS", 14*24*3600),
	}
}

// ShieldConfigFromEnv resolves the request shield settings. The shield
// middleware calls this on every check, so limits and the enabled switch can
// be changed without a restart.
func ShieldConfigFromEnv() shield.Config {
	return shield.Config{
		Enabled:           getEnvBool("SIMPLYCRM_SHIELD_ENABLED", true),
		Window:            getEnvSeconds("SIMPLYCRM_SHIELD_WINDOW_SECONDS", 10),
		BurstLimit:        getEnvInt("SIMPLYCRM_SHIELD_BURST_LIMIT", 60),
		Penalty:           getEnvSeconds("SIMPLYCRM_SHIELD_PENALTY_SECONDS", 60),
		SignatureTTL:      getEnvSeconds("SIMPLYCRM_SHIELD_SIGNATURE_TTL", 15),
		ProtectedPrefixes: getEnvList("SIMPLYCRM_SHIELD_PATH_PREFIXES", []string{"/api/"}),
	}
}

// LoginSecurityFromEnv resolves login brute-force protection settings.
func LoginSecurityFromEnv() security.Config {
	return security.Config{
		MaxAttempts:   getEnvInt("SIMPLYCRM_LOGIN_MAX_ATTEMPTS", 5),
		AttemptWindow: getEnvSeconds("SIMPLYCRM_LOGIN_ATTEMPT_WINDOW", 900),
		LockoutPeriod: getEnvSeconds("SIMPLYCRM_LOGIN_LOCKOUT_SECONDS", 900),
		Salt:          getEnv("SIMPLYCRM_LOGIN_SALT", "simplycrm"),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       parseLogLevel(getEnv("SIMPLYCRM_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("SIMPLYCRM_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("redis URL is required")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session cookie name is required")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	if c.Login.MaxAttempts <= 0 {
		return fmt.Errorf("login max attempts must be positive")
	}
	if c.Login.AttemptWindow <= 0 || c.Login.LockoutPeriod <= 0 {
		return fmt.Errorf("login windows must be positive")
	}
	return nil
}

// parseLogLevel parses a log level string
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

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvSeconds returns a duration from an integer number of seconds
func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma-separated list or a default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
