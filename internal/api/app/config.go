package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer string // Required: issuer claim baked into minted tokens

	DatabaseDriver string // Optional: database driver (sqlite, postgres) (default: sqlite)
	DatabaseFile   string // Optional: path to SQLite database file (default: ./builder.db)
	DatabaseURL    string // Required for postgres: connection string

	SigningKeyFile string // Optional: path to the Ed25519 token signing key (default: ./signing.pem)
	CacheMaxItems  int64  // Optional: session cache capacity in entries (default: 100000)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 9636)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:              getEnvOrDefault("BUILDER_ISSUER", "builder-api"),
		DatabaseDriver:      getEnvOrDefault("BUILDER_DATABASE_DRIVER", "sqlite"),
		DatabaseFile:        getEnvOrDefault("BUILDER_DATABASE_FILE", "builder.db"),
		DatabaseURL:         os.Getenv("BUILDER_DATABASE_URL"),
		SigningKeyFile:      getEnvOrDefault("BUILDER_SIGNING_KEY_FILE", "signing.pem"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 9636),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if maxItemsStr := os.Getenv("BUILDER_CACHE_MAX_ITEMS"); maxItemsStr != "" {
		if maxItems, err := strconv.ParseInt(maxItemsStr, 10, 64); err == nil && maxItems > 0 {
			cfg.CacheMaxItems = maxItems
		}
		// If parsing fails, CacheMaxItems remains 0 (cache falls back to its default)
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
