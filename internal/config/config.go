package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	APIBaseURL     string        // Base endpoint every client request is sent to
	DataDir        string        // Directory holding the client's local storage database
	LogLevel       string
	LogFormat      string        // "console" or "json"
	RequestTimeout time.Duration // Bounds one CLI command, all of its requests included
	Server         ServerConfig
}

// ServerConfig holds the settings of the bundled development backend.
type ServerConfig struct {
	Port           int
	DatabasePath   string
	JWTSecret      string
	SessionTTL     time.Duration
	AllowedOrigins []string
	RedisURL       string // Optional; revocations go to sqlite when empty
	Production     bool
}

// StoragePath returns the path of the client's local storage database.
func (c *Config) StoragePath() string {
	return filepath.Join(c.DataDir, "client.db")
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "3000")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value %q: %w", portStr, err)
	}

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	timeout, err := time.ParseDuration(getEnv("MANTIS_REQUEST_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid MANTIS_REQUEST_TIMEOUT: %w", err)
	}

	dataDir := getEnv("MANTIS_DATA_DIR", "")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dataDir = filepath.Join(home, ".mantis")
	}

	return &Config{
		APIBaseURL:     strings.TrimRight(getEnv("MANTIS_API_BASE_URL", "http://localhost:3000"), "/"),
		DataDir:        dataDir,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		RequestTimeout: timeout,
		Server: ServerConfig{
			Port:           port,
			DatabasePath:   getEnv("DATABASE_PATH", "./mantis.db"),
			JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-me"),
			SessionTTL:     ttl,
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
			RedisURL:       getEnv("REDIS_URL", ""),
			Production:     getEnv("APP_ENV", "") == "production",
		},
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
