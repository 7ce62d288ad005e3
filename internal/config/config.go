// Package config provides application and per-country configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	DataDir     string // Base directory for datasets and the run ledger
	ConfigsDir  string // Directory holding per-country YAML documents
	ModelsDir   string // Base directory for persisted model artifacts
	LogLevel    string
	Port        int
	DevMode     bool
	RetrainCron string // Optional cron spec for scheduled retraining ("" disables)
	Backup      BackupConfig
}

// BackupConfig holds optional S3-compatible artifact backup settings.
// Backups are disabled unless all required fields are present.
type BackupConfig struct {
	Endpoint        string // S3-compatible endpoint URL ("" for AWS)
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string // Key prefix inside the bucket
	Retention       int    // Number of backups to keep
}

// Enabled reports whether backup configuration is complete.
func (b BackupConfig) Enabled() bool {
	return b.Bucket != "" && b.AccessKeyID != "" && b.SecretAccessKey != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("TANKINTEL_DATA_DIR", "data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:     absDataDir,
		ConfigsDir:  getEnv("TANKINTEL_CONFIGS_DIR", "configs"),
		ModelsDir:   getEnv("TANKINTEL_MODELS_DIR", "models"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Port:        getEnvAsInt("TANKINTEL_PORT", 8090),
		DevMode:     getEnvAsBool("DEV_MODE", false),
		RetrainCron: getEnv("TANKINTEL_RETRAIN_CRON", ""),
		Backup: BackupConfig{
			Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
			Region:          getEnv("BACKUP_S3_REGION", "auto"),
			Bucket:          getEnv("BACKUP_S3_BUCKET", ""),
			AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
			Prefix:          getEnv("BACKUP_S3_PREFIX", "tankintel-backups"),
			Retention:       getEnvAsInt("BACKUP_RETENTION", 7),
		},
	}

	return cfg, nil
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
