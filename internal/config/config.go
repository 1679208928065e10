package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port            int
	DevMode         bool
	LogLevel        string
	DatabasePath    string
	SnapshotDir     string
	RefreshSchedule string // cron spec for reloading connector snapshots

	// Efficiency targets injected into the analytics engine. The connectors
	// pull fresh data at 8 AM EST; everything downstream reads snapshots.
	NCACTarget float64 // max acceptable new-customer acquisition cost
	MERFloor   float64 // minimum acceptable marketing efficiency ratio
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnvAsInt("PORT", 8080),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DatabasePath:    getEnv("DATABASE_PATH", "./data/camdash.db"),
		SnapshotDir:     getEnv("SNAPSHOT_DIR", "./data/snapshots"),
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "0 30 8 * * *"), // 8:30 AM, after the connector pull
		NCACTarget:      getEnvAsFloat("NCAC_TARGET", 50.0),
		MERFloor:        getEnvAsFloat("MER_FLOOR", 2.0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.SnapshotDir == "" {
		return fmt.Errorf("SNAPSHOT_DIR is required")
	}
	if c.NCACTarget <= 0 {
		return fmt.Errorf("NCAC_TARGET must be positive, got %.2f", c.NCACTarget)
	}
	if c.MERFloor <= 0 {
		return fmt.Errorf("MER_FLOOR must be positive, got %.2f", c.MERFloor)
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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
