package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/tally/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Redis configuration
	Redis RedisConfig

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

// RedisConfig holds aggregate store connection settings.
// REDIS_HOST and REDIS_PORT_NUM keep the names the deployed dashboards
// and compose files already use; the TALLY_* variables are additions.
type RedisConfig struct {
	Host     string
	Port     string
	DB       int
	PoolSize int
}

// Addr returns the host:port dial address for the Redis client.
func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Redis:         loadRedisConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("TALLY_HOST", "0.0.0.0"),
		Port:            getEnv("TALLY_PORT", "8080"),
		ReadTimeout:     getEnvDuration("TALLY_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("TALLY_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("TALLY_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("TALLY_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// loadRedisConfig loads aggregate store configuration from environment
func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT_NUM", "6379"),
		DB:       getEnvInt("TALLY_REDIS_DB", 0),
		PoolSize: getEnvInt("TALLY_REDIS_POOL_SIZE", 10),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       observability.ParseLogLevel(getEnv("TALLY_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("TALLY_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid server port: %s", c.Server.Port)
	}

	if c.Redis.Host == "" {
		return fmt.Errorf("redis host is required")
	}
	if _, err := strconv.Atoi(c.Redis.Port); err != nil {
		return fmt.Errorf("invalid redis port: %s", c.Redis.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis DB must be non-negative, got %d", c.Redis.DB)
	}
	if c.Redis.PoolSize <= 0 {
		return fmt.Errorf("redis pool size must be positive, got %d", c.Redis.PoolSize)
	}

	return nil
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

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
