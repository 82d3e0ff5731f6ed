package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"chillerdash/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upload   UploadConfig
	Logging  LoggingConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	GinMode         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver string // "sqlite" or "postgres"
	URL    string
}

// UploadConfig holds upload storage and processing settings
type UploadConfig struct {
	Dir             string
	MaxBytes        int64
	PreviewRows     int
	MaxConcurrent   int64
	Retention       time.Duration // 0 keeps files forever
	CleanupInterval time.Duration
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:   *loadServerConfig(),
		Database: *loadDatabaseConfig(),
		Upload:   *loadUploadConfig(),
		Logging:  LoggingConfig{Level: getEnvOrDefault("LOG_LEVEL", "INFO")},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", "8080"),
		GinMode:         getEnvOrDefault("GIN_MODE", "debug"),
		ReadTimeout:     getEnvDurationOrDefault("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    getEnvDurationOrDefault("WRITE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	driver := strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", DriverSQLite))
	defaultURL := "file:data/dashboard.db?_pragma=busy_timeout(5000)"
	if driver == DriverPostgres {
		defaultURL = ""
	}
	return &DatabaseConfig{
		Driver: driver,
		URL:    getEnvOrDefault("DATABASE_URL", defaultURL),
	}
}

func loadUploadConfig() *UploadConfig {
	return &UploadConfig{
		Dir:             getEnvOrDefault("UPLOAD_DIR", "data/uploads"),
		MaxBytes:        getEnvInt64OrDefault("UPLOAD_MAX_BYTES", 50*1024*1024),
		PreviewRows:     getEnvIntOrDefault("UPLOAD_PREVIEW_ROWS", 20),
		MaxConcurrent:   getEnvInt64OrDefault("UPLOAD_MAX_CONCURRENT", 4),
		Retention:       getEnvDurationOrDefault("UPLOAD_RETENTION", 0),
		CleanupInterval: getEnvDurationOrDefault("UPLOAD_CLEANUP_INTERVAL", time.Hour),
	}
}

func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return errors.ConfigInvalid("DATABASE_DRIVER must be sqlite or postgres, got " + config.Database.Driver)
	}
	if config.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required for the postgres driver")
	}
	if config.Upload.Dir == "" {
		return errors.ConfigInvalid("UPLOAD_DIR is required")
	}
	if config.Upload.MaxBytes <= 0 {
		return errors.ConfigInvalid("UPLOAD_MAX_BYTES must be positive")
	}
	if config.Upload.PreviewRows <= 0 {
		return errors.ConfigInvalid("UPLOAD_PREVIEW_ROWS must be positive")
	}
	if config.Upload.MaxConcurrent <= 0 {
		return errors.ConfigInvalid("UPLOAD_MAX_CONCURRENT must be positive")
	}
	if config.Upload.Retention < 0 {
		return errors.ConfigInvalid("UPLOAD_RETENTION cannot be negative")
	}
	if config.Upload.Retention > 0 && config.Upload.CleanupInterval <= 0 {
		return errors.ConfigInvalid("UPLOAD_CLEANUP_INTERVAL must be positive when retention is enabled")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
