// Package config provides centralized default values for ShopMetrics
package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found -- config defaults will be used")
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseFloat(valStr, 64); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%g (default: %g)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Database Pool
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	SlowQueryThreshold       time.Duration

	// Scoring Constants
	// Reference values in the deployment's currency scale.
	LoyaltySpendCeiling      float64
	LoyaltyTargetVisitsMonth float64
	CLVHighValueThreshold    float64
	CLVMediumValueThreshold  float64
	CLVLowAOVThreshold       float64

	// Forecasting
	DefaultForecastMonths   int
	DefaultHistoricalMonths int
	MaxForecastMonths       int

	// Batch Processing
	BatchOwnerConcurrency int

	// Auth
	JWTSecret         string
	AdminPassword     string
	AdminPasswordHash string
	TokenTTL          time.Duration
	RefreshTokenTTL   time.Duration

	// Email
	ResendAPIKey    string
	DigestFromEmail string
	DigestEnabled   bool
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Database Pool
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 100*time.Millisecond)

	// Scoring Constants
	LoyaltySpendCeiling = getEnvFloat("LOYALTY_SPEND_CEILING", 1_000_000)
	LoyaltyTargetVisitsMonth = getEnvFloat("LOYALTY_TARGET_VISITS_MONTH", 4)
	CLVHighValueThreshold = getEnvFloat("CLV_HIGH_VALUE_THRESHOLD", 500_000)
	CLVMediumValueThreshold = getEnvFloat("CLV_MEDIUM_VALUE_THRESHOLD", 100_000)
	CLVLowAOVThreshold = getEnvFloat("CLV_LOW_AOV_THRESHOLD", 50_000)

	// Forecasting
	DefaultForecastMonths = getEnvInt("DEFAULT_FORECAST_MONTHS", 6)
	DefaultHistoricalMonths = getEnvInt("DEFAULT_HISTORICAL_MONTHS", 12)
	MaxForecastMonths = getEnvInt("MAX_FORECAST_MONTHS", 24)

	// Batch Processing
	BatchOwnerConcurrency = getEnvInt("BATCH_OWNER_CONCURRENCY", 4)

	// Auth
	JWTSecret = getEnvString("JWT_SECRET", "")
	AdminPassword = getEnvString("ADMIN_PASSWORD", "")
	AdminPasswordHash = getEnvString("ADMIN_PASSWORD_HASH", "")
	TokenTTL = getEnvDuration("TOKEN_TTL", 1*time.Hour)
	RefreshTokenTTL = getEnvDuration("REFRESH_TOKEN_TTL", 168*time.Hour)

	// Email
	ResendAPIKey = getEnvString("RESEND_API_KEY", "")
	DigestFromEmail = getEnvString("DIGEST_FROM_EMAIL", "insights@shopmetrics.app")
	DigestEnabled = getEnvString("DIGEST_ENABLED", "false") == "true"
}
