// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:3000"], the map UI in development.
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// AuthorityURL is the base URL of the coordinate authority. Required by the API.
	AuthorityURL string

	// AuthorityTimeout bounds every call to the coordinate authority. Defaults to 5s.
	AuthorityTimeout time.Duration

	// JWTSecret verifies HS256 bearer tokens. Required by the API.
	JWTSecret string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// RateLimitPerMinute caps write requests per client IP. Defaults to 120.
	RateLimitPerMinute int

	// MigrateOnStart applies embedded migrations before serving. Defaults to false.
	MigrateOnStart bool
}

// Load reads the map API configuration from environment variables.
// Returns an error listing any required variables that are not set or any
// value that cannot be parsed.
func Load() (Config, error) {
	cfg, err := load("8080")
	if err != nil {
		return Config{}, err
	}
	if err := requireSet(map[string]string{
		"DATABASE_URL":  cfg.DatabaseURL,
		"AUTHORITY_URL": cfg.AuthorityURL,
		"JWT_SECRET":    cfg.JWTSecret,
	}); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadAuthority reads the configuration of the bundled coordinate authority.
// Only DATABASE_URL is required; PORT defaults to "8081".
func LoadAuthority() (Config, error) {
	cfg, err := load("8081")
	if err != nil {
		return Config{}, err
	}
	if err := requireSet(map[string]string{"DATABASE_URL": cfg.DatabaseURL}); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func load(defaultPort string) (Config, error) {
	cfg := Config{
		Port:         getEnv("PORT", defaultPort),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		CORSOrigins:  splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		AuthorityURL: os.Getenv("AUTHORITY_URL"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
	}

	var err error
	if cfg.AuthorityTimeout, err = time.ParseDuration(getEnv("AUTHORITY_TIMEOUT", "5s")); err != nil || cfg.AuthorityTimeout <= 0 {
		return Config{}, fmt.Errorf("AUTHORITY_TIMEOUT must be a positive duration, got %q", os.Getenv("AUTHORITY_TIMEOUT"))
	}
	if cfg.MaxBodyBytes, err = strconv.ParseInt(getEnv("MAX_BODY_BYTES", "1048576"), 10, 64); err != nil || cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("MAX_BODY_BYTES must be a positive integer, got %q", os.Getenv("MAX_BODY_BYTES"))
	}
	if cfg.RateLimitPerMinute, err = strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "120")); err != nil || cfg.RateLimitPerMinute <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be a positive integer, got %q", os.Getenv("RATE_LIMIT_PER_MINUTE"))
	}
	if cfg.MigrateOnStart, err = strconv.ParseBool(getEnv("MIGRATE_ON_START", "false")); err != nil {
		return Config{}, fmt.Errorf("MIGRATE_ON_START must be a boolean, got %q", os.Getenv("MIGRATE_ON_START"))
	}
	return cfg, nil
}

// requireSet returns an error naming every key in vals whose value is empty.
func requireSet(vals map[string]string) error {
	var missing []string
	for _, key := range []string{"DATABASE_URL", "AUTHORITY_URL", "JWT_SECRET"} {
		if v, ok := vals[key]; ok && v == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	return nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
