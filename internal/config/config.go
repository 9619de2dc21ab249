package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for memetrack
type Config struct {
	// HTTP configuration
	ListenAddr string

	// Database configuration
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	// Redis relay configuration (optional; empty disables the relay)
	RedisURL     string
	RelayChannel string

	// Ingestion configuration
	IngestAPIBase  string
	IngestAPIToken string
	IngestMaxPosts int

	// Monitoring configuration
	PollInterval    time.Duration
	ErrorBackoff    time.Duration
	IngestRateLimit float64

	// Freshness oracle configuration
	FreshnessAPIBase  string
	FreshnessTimeout  time.Duration
	FreshnessFailOpen bool

	// Pipeline configuration
	BlacklistFiltering bool

	// Logging configuration
	LogLevel string

	// Metrics configuration
	MetricsPort string
}

// Default durations for the polling loop and the freshness lookup.
const (
	DefaultPollInterval     = 5 * time.Second
	DefaultErrorBackoff     = 10 * time.Second
	DefaultFreshnessTimeout = 5 * time.Second
)

// Load reads configuration from environment variables and validates it
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:         getEnv("LISTEN_ADDR", ":8081"),
		DBHost:             getEnv("DB_HOST", ""),
		DBUser:             getEnv("DB_USER", ""),
		DBPassword:         getEnv("DB_PASSWORD", ""),
		DBName:             getEnv("DB_NAME", ""),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBSSLMode:          getEnv("DB_SSL_MODE", "disable"),
		RedisURL:           getEnv("REDIS_URL", ""),
		RelayChannel:       getEnv("RELAY_CHANNEL", "memetrack:alerts"),
		IngestAPIBase:      getEnv("INGEST_API_BASE", "https://api.apify.com/v2"),
		IngestAPIToken:     getEnv("INGEST_API_TOKEN", ""),
		FreshnessAPIBase:   getEnv("FRESHNESS_API_BASE", "https://public-api.solscan.io"),
		FreshnessFailOpen:  getBoolEnv("FRESHNESS_FAIL_OPEN", true),
		BlacklistFiltering: getBoolEnv("BLACKLIST_FILTERING", false),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MetricsPort:        getEnv("METRICS_PORT", "9100"),
	}

	var err error
	cfg.IngestMaxPosts, err = parseIntEnv("INGEST_MAX_POSTS", 10)
	if err != nil {
		return cfg, fmt.Errorf("invalid INGEST_MAX_POSTS: %w", err)
	}

	cfg.PollInterval, err = parseDurationEnv("POLL_INTERVAL", DefaultPollInterval)
	if err != nil {
		return cfg, fmt.Errorf("invalid POLL_INTERVAL: %w", err)
	}

	cfg.ErrorBackoff, err = parseDurationEnv("ERROR_BACKOFF", DefaultErrorBackoff)
	if err != nil {
		return cfg, fmt.Errorf("invalid ERROR_BACKOFF: %w", err)
	}

	cfg.FreshnessTimeout, err = parseDurationEnv("FRESHNESS_TIMEOUT", DefaultFreshnessTimeout)
	if err != nil {
		return cfg, fmt.Errorf("invalid FRESHNESS_TIMEOUT: %w", err)
	}

	cfg.IngestRateLimit, err = parseFloatEnv("INGEST_RATE_LIMIT", 2.0)
	if err != nil {
		return cfg, fmt.Errorf("invalid INGEST_RATE_LIMIT: %w", err)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks that the configuration is valid
func (c Config) validate() error {
	if c.DBName == "" {
		return fmt.Errorf("DB_NAME is required")
	}

	if c.DBHost == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}

	if c.IngestMaxPosts < 1 {
		return fmt.Errorf("INGEST_MAX_POSTS must be at least 1")
	}

	validLogLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
		"panic": true,
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid LOG_LEVEL: %s (must be one of: trace, debug, info, warn, error, fatal, panic)", c.LogLevel)
	}

	return nil
}

// getEnv retrieves an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv parses a boolean environment variable with a default value
func getBoolEnv(key string, defaultValue bool) bool {
	str := os.Getenv(key)
	if str == "" {
		return defaultValue
	}
	val, err := strconv.ParseBool(str)
	if err != nil {
		return defaultValue
	}
	return val
}

// parseIntEnv parses an integer environment variable with a default value
func parseIntEnv(key string, defaultValue int) (int, error) {
	str := os.Getenv(key)
	if str == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(str)
}

// parseFloatEnv parses a float environment variable with a default value
func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	str := os.Getenv(key)
	if str == "" {
		return defaultValue, nil
	}
	return strconv.ParseFloat(str, 64)
}

// parseDurationEnv parses a duration environment variable with a default value
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	str := os.Getenv(key)
	if str == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(str)
}
