package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the access service
type Config struct {
	// Server
	Port     string
	Host     string
	LogLevel string

	// Database (data service)
	DatabaseURL string

	// Identity provider
	KratosPublicURL string

	// Role resolution
	RoleCacheTTL     time.Duration
	RoleFetchTimeout time.Duration

	// Guard navigation targets
	SignInPath  string
	LandingPath string

	// View composer policy override, empty for the built-in table
	PolicyFile string

	// Rate limiting on auth endpoints
	AuthRatePerSecond float64
	AuthRateBurst     int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{}

	config.Port = getEnvOrDefault("PORT", "9600")
	config.Host = getEnvOrDefault("HOST", "0.0.0.0")
	config.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	config.DatabaseURL = os.Getenv("DATABASE_URL")
	if config.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	config.KratosPublicURL = os.Getenv("KRATOS_PUBLIC_URL")
	if config.KratosPublicURL == "" {
		return nil, fmt.Errorf("KRATOS_PUBLIC_URL is required")
	}

	var err error
	config.RoleCacheTTL, err = time.ParseDuration(getEnvOrDefault("ROLE_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROLE_CACHE_TTL: %w", err)
	}

	config.RoleFetchTimeout, err = time.ParseDuration(getEnvOrDefault("ROLE_FETCH_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROLE_FETCH_TIMEOUT: %w", err)
	}

	config.SignInPath = getEnvOrDefault("SIGN_IN_PATH", "/login")
	config.LandingPath = getEnvOrDefault("LANDING_PATH", "/dashboard")
	config.PolicyFile = os.Getenv("VIEW_POLICY_FILE")

	rateStr := getEnvOrDefault("AUTH_RATE_PER_SECOND", "5")
	config.AuthRatePerSecond, err = strconv.ParseFloat(rateStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATE_PER_SECOND: %w", err)
	}

	burstStr := getEnvOrDefault("AUTH_RATE_BURST", "10")
	burst, err := strconv.ParseInt(burstStr, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_RATE_BURST: %w", err)
	}
	config.AuthRateBurst = int(burst)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	port, err := strconv.ParseInt(c.Port, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid port: %s", c.Port)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535: %s", c.Port)
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	// Role cache must outlive a render cycle but never exceed an hour,
	// role revocation has to land eventually
	if c.RoleCacheTTL < time.Second || c.RoleCacheTTL > time.Hour {
		return fmt.Errorf("role cache TTL out of range: %v", c.RoleCacheTTL)
	}

	if c.RoleFetchTimeout < time.Second {
		return fmt.Errorf("role fetch timeout too short: %v", c.RoleFetchTimeout)
	}

	if !strings.HasPrefix(c.SignInPath, "/") || !strings.HasPrefix(c.LandingPath, "/") {
		return fmt.Errorf("navigation paths must be absolute: %s, %s", c.SignInPath, c.LandingPath)
	}

	if c.AuthRatePerSecond <= 0 || c.AuthRateBurst < 1 {
		return fmt.Errorf("invalid auth rate limit: %v/%d", c.AuthRatePerSecond, c.AuthRateBurst)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
