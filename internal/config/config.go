package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Engine   EngineConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ServerConfig struct {
	Port string
}

// EngineConfig carries the reconciliation knobs that are deployment policy
// rather than per-rule configuration.
type EngineConfig struct {
	LogLevel string
	// UnmatchedAgeDays is how long a transaction may stay UNMATCHED before
	// the aging sweep raises a MISSING_MATCH exception.
	UnmatchedAgeDays int
	// TightAmountTolerance and TightDateToleranceDays bound what counts as a
	// clean match; an applied match outside them raises a variance exception.
	TightAmountTolerance   float64
	TightDateToleranceDays int
}

func Load() (*Config, error) {
	unmatchedAge, err := strconv.Atoi(getEnv("UNMATCHED_AGE_DAYS", "7"))
	if err != nil {
		unmatchedAge = 7
	}

	tightAmount, err := strconv.ParseFloat(getEnv("TIGHT_AMOUNT_TOLERANCE", "0.01"), 64)
	if err != nil {
		tightAmount = 0.01
	}

	tightDays, err := strconv.Atoi(getEnv("TIGHT_DATE_TOLERANCE_DAYS", "1"))
	if err != nil {
		tightDays = 1
	}

	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "bankrecon_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Engine: EngineConfig{
			LogLevel:               getEnv("LOG_LEVEL", "info"),
			UnmatchedAgeDays:       unmatchedAge,
			TightAmountTolerance:   tightAmount,
			TightDateToleranceDays: tightDays,
		},
	}, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
