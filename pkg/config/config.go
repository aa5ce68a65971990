// Package config loads application configuration from the environment and
// builds the logger.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Registry: markets derive their addresses under this account.
	RegistryAddress string

	// Oracle
	OracleMode       string // "http" or "fixed"
	OracleURL        string
	OracleFixedPrice string // price served in "fixed" mode

	// Snapshot cache
	CacheNumCounters int64
	CacheMaxCost     int64

	// Storage
	StorageMode  string // "postgres" or "memory"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string

	// Bootstrap market, created at startup when storage is empty.
	BootstrapMarket        bool
	BootstrapAdmin         string
	BootstrapBuyToken      string
	BootstrapCommissionBps uint32
	BootstrapAsset         string
	BootstrapRule          string
	BootstrapTargetPrice   string
	BootstrapDuration      time.Duration
	BootstrapTitle         string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Registry defaults
		RegistryAddress: getEnvOrDefault("REGISTRY_ADDRESS", "0x0000000000000000000000000000000000000001"),

		// Oracle defaults
		OracleMode:       getEnvOrDefault("ORACLE_MODE", "fixed"),
		OracleURL:        getEnvOrDefault("ORACLE_URL", "http://localhost:9090"),
		OracleFixedPrice: getEnvOrDefault("ORACLE_FIXED_PRICE", "95000"),

		// Cache defaults
		CacheNumCounters: getInt64OrDefault("CACHE_NUM_COUNTERS", 10000),
		CacheMaxCost:     getInt64OrDefault("CACHE_MAX_COST", 1000),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "memory"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "truthmarket"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "truthmarket123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "truthmarket"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),

		// Bootstrap defaults
		BootstrapMarket:        getBoolOrDefault("BOOTSTRAP_MARKET", false),
		BootstrapAdmin:         getEnvOrDefault("BOOTSTRAP_ADMIN", "admin"),
		BootstrapBuyToken:      getEnvOrDefault("BOOTSTRAP_BUY_TOKEN", "uusd"),
		BootstrapCommissionBps: getBpsOrDefault("BOOTSTRAP_COMMISSION_BPS", 100),
		BootstrapAsset:         getEnvOrDefault("BOOTSTRAP_ASSET", "BTC"),
		BootstrapRule:          getEnvOrDefault("BOOTSTRAP_RULE", "price_at"),
		BootstrapTargetPrice:   getEnvOrDefault("BOOTSTRAP_TARGET_PRICE", "100000"),
		BootstrapDuration:      getDurationOrDefault("BOOTSTRAP_DURATION", 24*time.Hour),
		BootstrapTitle:         getEnvOrDefault("BOOTSTRAP_TITLE", "Will the tracked asset reach the target?"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.StorageMode != "postgres" && c.StorageMode != "memory" {
		return fmt.Errorf("STORAGE_MODE must be 'postgres' or 'memory', got %q", c.StorageMode)
	}

	if c.OracleMode != "http" && c.OracleMode != "fixed" {
		return fmt.Errorf("ORACLE_MODE must be 'http' or 'fixed', got %q", c.OracleMode)
	}

	if c.OracleMode == "http" && c.OracleURL == "" {
		return fmt.Errorf("ORACLE_URL cannot be empty in http oracle mode")
	}

	if c.BootstrapCommissionBps > 10000 {
		return fmt.Errorf("BOOTSTRAP_COMMISSION_BPS must be at most 10000, got %d", c.BootstrapCommissionBps)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getBpsOrDefault(key string, defaultValue uint32) uint32 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return defaultValue
	}

	return uint32(intVal)
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
