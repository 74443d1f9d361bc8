// Package config provides application configuration management.
// It loads settings from environment variables (optionally seeded from a
// .env file) and provides defaults for the server, data sources, rate
// limits, and optional integrations (R2 source sync, Sentry, Better Stack).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ValidationMode selects which settings are required.
type ValidationMode int

const (
	// ServerMode validates everything the HTTP server needs.
	ServerMode ValidationMode = iota
	// ToolMode validates only data-source settings (cmd/verify).
	ToolMode
	// PublishMode additionally requires R2 credentials (cmd/publish).
	PublishMode
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir               string        // Directory holding the source files
	EvaluationFile        string        // Q-Report delimited-text file name (relative to DataDir unless absolute)
	CatalogFile           string        // Course catalog delimited-text file name
	AssessmentFile        string        // Assessment-signal JSON cache file name
	WarmupGracePeriod     time.Duration // Readiness turns green after this even if warmup is still running
	MaxCoursesPerResponse int           // Cap on listing/search responses

	// Client Rate Limits (Token Bucket Algorithm, keyed by client IP)
	ClientRateBurst  float64 // Maximum burst tokens per client (default: 30)
	ClientRateRefill float64 // Tokens refilled per second (default: 2)

	// Metrics Authentication
	MetricsUsername string // Username for /metrics Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics Basic Auth (empty = no auth)

	// R2 Source Sync
	R2Enabled         bool
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2SourcePrefix    string // Object key prefix for source files (default: "sources/")

	// Sentry (Better Stack Errors)
	SentryToken       string
	SentryHost        string
	SentryEnvironment string
	SentrySampleRate  float64

	// Better Stack Logs
	BetterStackToken    string
	BetterStackEndpoint string
}

// Load reads configuration for the HTTP server.
func Load() (*Config, error) {
	return LoadForMode(ServerMode)
}

// LoadForMode reads configuration from environment variables and validates
// it for the given mode. It attempts to load a .env file first.
func LoadForMode(mode ValidationMode) (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, ShutdownGrace),

		DataDir:               getEnv(EnvDataDir, getDefaultDataDir()),
		EvaluationFile:        getEnv(EnvEvaluationFile, "qreport.csv"),
		CatalogFile:           getEnv(EnvCatalogFile, "catalog.csv"),
		AssessmentFile:        getEnv(EnvAssessmentFile, "assessment_cache.json"),
		WarmupGracePeriod:     getDurationEnv(EnvWarmupGrace, WarmupGracePeriod),
		MaxCoursesPerResponse: getIntEnv(EnvMaxCoursesReply, 50),

		ClientRateBurst:  getFloatEnv(EnvClientRateBurst, 30),
		ClientRateRefill: getFloatEnv(EnvClientRateRefill, 2),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		R2Enabled:         getBoolEnv(EnvR2Enabled, false),
		R2AccountID:       getEnv(EnvR2AccountID, ""),
		R2AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
		R2SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
		R2BucketName:      getEnv(EnvR2BucketName, ""),
		R2SourcePrefix:    getEnv(EnvR2SourcePrefix, "sources/"),

		SentryToken:       getEnv(EnvSentryToken, ""),
		SentryHost:        getEnv(EnvSentryHost, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),
	}

	if err := cfg.ValidateForMode(mode); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for server mode.
func (c *Config) Validate() error {
	return c.ValidateForMode(ServerMode)
}

// ValidateForMode checks if required configuration values are set.
func (c *Config) ValidateForMode(mode ValidationMode) error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.New("GEMS_DATA_DIR is required"))
	}
	if c.CatalogFile == "" {
		errs = append(errs, errors.New("GEMS_CATALOG_FILE is required"))
	}

	if mode == ServerMode {
		if c.Port == "" {
			errs = append(errs, errors.New("GEMS_PORT is required"))
		}
		if c.ShutdownTimeout <= 0 {
			errs = append(errs, fmt.Errorf("GEMS_SHUTDOWN_TIMEOUT must be positive, got %v", c.ShutdownTimeout))
		}
		if c.MaxCoursesPerResponse <= 0 {
			errs = append(errs, fmt.Errorf("GEMS_MAX_COURSES_PER_RESPONSE must be positive, got %d", c.MaxCoursesPerResponse))
		}
		if c.ClientRateBurst <= 0 || c.ClientRateRefill <= 0 {
			errs = append(errs, fmt.Errorf("client rate limit must be positive, got burst=%v refill=%v", c.ClientRateBurst, c.ClientRateRefill))
		}
		if c.SentryToken != "" && c.SentryHost == "" {
			errs = append(errs, errors.New("GEMS_SENTRY_HOST is required when GEMS_SENTRY_TOKEN is set"))
		}
	}

	if c.R2Enabled || mode == PublishMode {
		if err := c.validateR2(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (c *Config) validateR2() error {
	var missing []string
	if c.R2AccountID == "" {
		missing = append(missing, EnvR2AccountID)
	}
	if c.R2AccessKeyID == "" {
		missing = append(missing, EnvR2AccessKeyID)
	}
	if c.R2SecretAccessKey == "" {
		missing = append(missing, EnvR2SecretAccessKey)
	}
	if c.R2BucketName == "" {
		missing = append(missing, EnvR2BucketName)
	}
	if len(missing) > 0 {
		return fmt.Errorf("R2 source sync requires %s", strings.Join(missing, ", "))
	}
	return nil
}

// R2Endpoint returns the Cloudflare R2 S3-compatible endpoint for the account.
func (c *Config) R2Endpoint() string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.R2AccountID)
}

// EvaluationPath returns the full path to the evaluation source.
func (c *Config) EvaluationPath() string {
	return c.resolve(c.EvaluationFile)
}

// CatalogPath returns the full path to the catalog source.
func (c *Config) CatalogPath() string {
	return c.resolve(c.CatalogFile)
}

// AssessmentPath returns the full path to the assessment-signal cache.
func (c *Config) AssessmentPath() string {
	return c.resolve(c.AssessmentFile)
}

func (c *Config) resolve(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}
