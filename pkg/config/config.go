// Package config loads cmsctl settings from the environment.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all cmsctl configuration.
type Config struct {
	// StoreDriver is "sqlite", "postgres" or "memory".
	StoreDriver string
	StoreDSN    string

	// NATSURL enables publishing to an external NATS server. Empty means
	// events are only logged.
	NATSURL string

	// NATSCredentialsURL is the gocloud bucket holding encrypted NATS
	// credentials. NATSCredentialsKeeper decrypts them.
	NATSCredentialsURL    string
	NATSCredentialsKey    string
	NATSCredentialsKeeper string

	// NATSPort and NATSStoreDir configure the embedded server of serve.
	NATSPort     int
	NATSStoreDir string

	MaxConflictRetries int
	ShutdownTimeout    time.Duration

	LogLevel  string
	LogFormat string // "json" or "text"

	Environment string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		StoreDriver: getEnv("CMS_STORE_DRIVER", "sqlite"),
		StoreDSN:    getEnv("CMS_STORE_DSN", "cms.db"),

		NATSURL:               getEnv("CMS_NATS_URL", ""),
		NATSCredentialsURL:    getEnv("CMS_NATS_CREDENTIALS_URL", ""),
		NATSCredentialsKey:    getEnv("CMS_NATS_CREDENTIALS_KEY", "nats.json"),
		NATSCredentialsKeeper: getEnv("CMS_NATS_CREDENTIALS_KEEPER", ""),
		NATSPort:              getEnvInt("CMS_NATS_PORT", 4222),
		NATSStoreDir:          getEnv("CMS_NATS_STORE_DIR", ""),

		MaxConflictRetries: getEnvInt("CMS_MAX_CONFLICT_RETRIES", 0),
		ShutdownTimeout:    getEnvDuration("CMS_SHUTDOWN_TIMEOUT", 30*time.Second),

		LogLevel:  getEnv("CMS_LOG_LEVEL", "info"),
		LogFormat: getEnv("CMS_LOG_FORMAT", "text"),

		Environment: getEnv("CMS_ENVIRONMENT", "dev"),
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch strings.ToLower(c.StoreDriver) {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("CMS_STORE_DRIVER: unknown driver %q", c.StoreDriver)
	}
	if c.NATSCredentialsURL != "" && c.NATSCredentialsKeeper == "" {
		return fmt.Errorf("CMS_NATS_CREDENTIALS_KEEPER is required with CMS_NATS_CREDENTIALS_URL")
	}
	if c.MaxConflictRetries < 0 {
		return fmt.Errorf("CMS_MAX_CONFLICT_RETRIES must not be negative")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "dev"
}

// Logger builds the process logger from LogLevel and LogFormat.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.LogLevel)}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
