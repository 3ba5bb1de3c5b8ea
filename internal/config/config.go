// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir             string // Base directory for all databases (always absolute)
	Port                int
	DevMode             bool
	LogLevel            string
	LogPretty           bool
	Currency            string  // Reporting currency for all monetary amounts
	DefaultMinBuy       float64 // Default minimum amount per purchase in balance requests
	MarketDataURL       string  // Base URL of the quote provider
	AllowedOrigins      []string
	PriceRefreshCron    string // Cron schedule for the price refresh job
	ValueSnapshotCron   string // Cron schedule for the daily portfolio value snapshot
	CacheCleanupCron    string // Cron schedule for expired-cache cleanup
	Backup              *BackupConfig
}

// BackupConfig holds S3 backup configuration
type BackupConfig struct {
	Enabled   bool
	Bucket    string
	Region    string
	Endpoint  string // Optional custom endpoint for S3-compatible storage
	Prefix    string // Key prefix inside the bucket
	AccessKey string // Optional static credentials; default AWS chain when empty
	SecretKey string
	Cron      string // Cron schedule for the backup job
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Resolve the data directory to an absolute path and make sure it exists
	dataDir := getEnv("PORTFOLIO_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:           absDataDir,
		Port:              getEnvAsInt("PORT", 8000),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogPretty:         getEnvAsBool("LOG_PRETTY", false),
		Currency:          getEnv("PORTFOLIO_CURRENCY", "EUR"),
		DefaultMinBuy:     getEnvAsFloat("DEFAULT_MIN_BUY_AMOUNT", 100),
		MarketDataURL:     getEnv("MARKET_DATA_URL", "https://query1.finance.yahoo.com"),
		AllowedOrigins:    []string{getEnv("ALLOWED_ORIGIN", "*")},
		PriceRefreshCron:  getEnv("PRICE_REFRESH_CRON", "@every 15m"),
		ValueSnapshotCron: getEnv("VALUE_SNAPSHOT_CRON", "0 0 18 * * *"),
		CacheCleanupCron:  getEnv("CACHE_CLEANUP_CRON", "@hourly"),
		Backup:            loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Currency == "" {
		return fmt.Errorf("currency must not be empty")
	}
	if c.DefaultMinBuy < 0 {
		return fmt.Errorf("default minimum buy amount must not be negative")
	}
	if c.Backup.Enabled && c.Backup.Bucket == "" {
		return fmt.Errorf("BACKUP_BUCKET is required when backups are enabled")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// loadBackupConfig loads S3 backup configuration
func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Enabled:   getEnvAsBool("BACKUP_ENABLED", false),
		Bucket:    getEnv("BACKUP_BUCKET", ""),
		Region:    getEnv("BACKUP_REGION", "eu-west-1"),
		Endpoint:  getEnv("BACKUP_ENDPOINT", ""),
		Prefix:    getEnv("BACKUP_PREFIX", "portfolio-balancer"),
		AccessKey: getEnv("BACKUP_ACCESS_KEY", ""),
		SecretKey: getEnv("BACKUP_SECRET_KEY", ""),
		Cron:      getEnv("BACKUP_CRON", "0 0 2 * * *"),
	}
}
