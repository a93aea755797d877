// Package config loads application configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "playlist-backend/pkg/errors"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Redis configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Cache behavior
	CacheOpTimeout    time.Duration // per-operation bound, keeps degraded mode cheap
	CachePingInterval time.Duration
	CacheEntityTTL    time.Duration
	CacheListTTL      time.Duration
	CacheSearchTTL    time.Duration

	// Authentication
	JWTSecret string
	JWTIssuer string

	// Logging
	LogLevel string

	// CORS
	AllowedOrigins []string

	// Metrics
	MetricsNamespace string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		CacheOpTimeout:    getEnvDuration("CACHE_OP_TIMEOUT", 500*time.Millisecond),
		CachePingInterval: getEnvDuration("CACHE_PING_INTERVAL", 5*time.Second),
		CacheEntityTTL:    getEnvDuration("CACHE_ENTITY_TTL", 5*time.Minute),
		CacheListTTL:      getEnvDuration("CACHE_LIST_TTL", time.Minute),
		CacheSearchTTL:    getEnvDuration("CACHE_SEARCH_TTL", 30*time.Second),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "playlist-backend"),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		MetricsNamespace: getEnv("METRICS_NAMESPACE", "playlist"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return apperrors.NewConfigurationError("JWT_SECRET is required in production")
		}
		if c.RedisAddr == "" {
			return apperrors.NewConfigurationError("REDIS_ADDR is required in production")
		}
	}
	if c.CacheOpTimeout <= 0 {
		return apperrors.NewConfigurationError("CACHE_OP_TIMEOUT must be positive")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList gets a comma-separated environment variable with a default value
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
